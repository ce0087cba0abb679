package rules

import "github.com/daemonforge/solorpg/internal/dice"

// RollResult is a single resolved check. Produced fresh per roll.
type RollResult struct {
	Total           int
	Dice            []int
	Attribute       Attribute
	Skill           Skill
	TargetNumber    int
	Success         bool
	CriticalSuccess bool
	CriticalFailure bool
}

// DiceSum is the raw sum of the two dice used.
func (r RollResult) DiceSum() int {
	return dice.Sum(r.Dice)
}

// OpposedResult holds both sides of an opposed check.
type OpposedResult struct {
	Attacker     RollResult
	Defender     RollResult
	AttackerWins bool
}

// ResolveCheck rolls two dice under mode and adds the attribute and skill.
// Criticals look only at the raw dice: 12 is a critical success, 2 a critical
// failure, whatever the bonuses or target number.
func ResolveCheck(r *dice.Roller, attr Attribute, skill Skill, target int, stats Stats, mode dice.Mode) RollResult {
	d := r.Roll(mode)
	sum := dice.Sum(d)
	total := sum + stats.Attr(attr) + stats.Skill(skill)
	return RollResult{
		Total:           total,
		Dice:            d,
		Attribute:       attr,
		Skill:           skill,
		TargetNumber:    target,
		Success:         total >= target,
		CriticalSuccess: sum == 12,
		CriticalFailure: sum == 2,
	}
}

// ResolveOpposed rolls both sides with target 0. The attacker wins only on a
// strictly higher total; ties go to the defender.
func ResolveOpposed(r *dice.Roller, attacker, defender Stats, attr Attribute, skill Skill) OpposedResult {
	a := ResolveCheck(r, attr, skill, 0, attacker, dice.Normal)
	d := ResolveCheck(r, attr, skill, 0, defender, dice.Normal)
	return OpposedResult{
		Attacker:     a,
		Defender:     d,
		AttackerWins: a.Total > d.Total,
	}
}

// ResolveFearTest is a Soul+Will check.
func ResolveFearTest(r *dice.Roller, stats Stats, target int, mode dice.Mode) RollResult {
	return ResolveCheck(r, Soul, Will, target, stats, mode)
}

// ResolveSupernatural is a Soul+Occult check.
func ResolveSupernatural(r *dice.Roller, stats Stats, target int, mode dice.Mode) RollResult {
	return ResolveCheck(r, Soul, Occult, target, stats, mode)
}

// ResolveSocialInteraction is an opposed Presence+Social check.
func ResolveSocialInteraction(r *dice.Roller, attacker, defender Stats) OpposedResult {
	return ResolveOpposed(r, attacker, defender, Presence, Social)
}
