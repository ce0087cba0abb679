package daemon

import (
	"github.com/daemonforge/solorpg/internal/dice"
	"github.com/daemonforge/solorpg/internal/rules"
)

// CheckOutcome is the authoritative result of a check once the actor's
// daemon has been applied. Consumers act on Success, not Roll.Success.
type CheckOutcome struct {
	Roll          rules.RollResult
	Modifier      int
	AdjustedTotal int
	Success       bool
}

// OpposedOutcome is an opposed check with daemon modifiers on both sides.
type OpposedOutcome struct {
	Attacker     CheckOutcome
	Defender     CheckOutcome
	AttackerWins bool
}

// Check names the attribute, skill and target of a static check.
type Check struct {
	Attribute    rules.Attribute
	Skill        rules.Skill
	TargetNumber int
}

// ResolveSkillCheck rolls the check through the rule engine, then adds the
// actor's daemon modifier for the skill before comparing to the target.
func ResolveSkillCheck(r *dice.Roller, daemons *Table, actor string, c Check, stats rules.Stats, mode dice.Mode) CheckOutcome {
	roll := rules.ResolveCheck(r, c.Attribute, c.Skill, c.TargetNumber, stats, mode)
	return adjust(roll, daemons.Modifier(actor, c.Skill))
}

// ResolveOpposed rolls both sides, applies each actor's daemon modifier and
// compares the adjusted totals. Ties go to the defender.
func ResolveOpposed(r *dice.Roller, daemons *Table, attackerID string, attacker rules.Stats, defenderID string, defender rules.Stats, attr rules.Attribute, skill rules.Skill) OpposedOutcome {
	res := rules.ResolveOpposed(r, attacker, defender, attr, skill)
	a := adjust(res.Attacker, daemons.Modifier(attackerID, skill))
	d := adjust(res.Defender, daemons.Modifier(defenderID, skill))
	return OpposedOutcome{
		Attacker:     a,
		Defender:     d,
		AttackerWins: a.AdjustedTotal > d.AdjustedTotal,
	}
}

// ResolveOpposedSocial is ResolveOpposed on Presence+Social.
func ResolveOpposedSocial(r *dice.Roller, daemons *Table, attackerID string, attacker rules.Stats, defenderID string, defender rules.Stats) OpposedOutcome {
	return ResolveOpposed(r, daemons, attackerID, attacker, defenderID, defender, rules.Presence, rules.Social)
}

func adjust(roll rules.RollResult, mod int) CheckOutcome {
	total := roll.Total + mod
	return CheckOutcome{
		Roll:          roll,
		Modifier:      mod,
		AdjustedTotal: total,
		Success:       total >= roll.TargetNumber,
	}
}
