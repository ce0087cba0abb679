package rules

import (
	"fmt"
	"strings"

	"github.com/daemonforge/solorpg/internal/dice"
)

// AttackResult is a resolved combat attack.
type AttackResult struct {
	Attack  RollResult
	Defense int
	Hit     bool
}

// ResolveCombatAttack rolls Body+Combat for the attacker against the
// defender's passive defense. Hit requires the attack total to exceed it.
func ResolveCombatAttack(r *dice.Roller, attacker, defender Stats) AttackResult {
	atk := ResolveCheck(r, Body, Combat, 0, attacker, dice.Normal)
	def := Defense(defender)
	return AttackResult{
		Attack:  atk,
		Defense: def,
		Hit:     atk.Total > def,
	}
}

// DamageType selects the dice and formula of a damage roll.
type DamageType int

const (
	Light DamageType = iota
	Medium
	Heavy
	Unarmed
)

var damageTypeNames = [...]string{"Light", "Medium", "Heavy", "Unarmed"}

func (t DamageType) String() string {
	if t >= 0 && int(t) < len(damageTypeNames) {
		return damageTypeNames[t]
	}
	return fmt.Sprintf("DamageType(%d)", int(t))
}

// ParseDamageType resolves a damage type by name, case-insensitively.
func ParseDamageType(s string) (DamageType, error) {
	for i, name := range damageTypeNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return DamageType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown damage type %q", s)
}

// DiceCount is how many d6 a damage type rolls.
func (t DamageType) DiceCount() int {
	if t == Heavy {
		return 2
	}
	return 1
}

// DamageResult is a resolved damage roll.
type DamageResult struct {
	Type   DamageType
	Dice   []int
	Damage int
}

// DamageFormula maps rolled dice to damage.
type DamageFormula interface {
	Damage(t DamageType, d []int) int
}

// StandardDamage is the built-in damage table:
//
//	Light   1d6  die
//	Medium  1d6  die + 2
//	Heavy   2d6  sum
//	Unarmed 1d6  max(1, die - 2)
type StandardDamage struct{}

func (StandardDamage) Damage(t DamageType, d []int) int {
	sum := dice.Sum(d)
	switch t {
	case Light:
		return sum
	case Medium:
		return sum + 2
	case Heavy:
		return sum
	case Unarmed:
		return max(1, sum-2)
	default:
		return 0
	}
}

// ResolveDamage rolls damage with the standard table.
func ResolveDamage(r *dice.Roller, t DamageType) DamageResult {
	return ResolveDamageWith(r, StandardDamage{}, t)
}

// ResolveDamageWith rolls the dice for t and hands them to formula.
// A nil formula uses the standard table.
func ResolveDamageWith(r *dice.Roller, formula DamageFormula, t DamageType) DamageResult {
	if formula == nil {
		formula = StandardDamage{}
	}
	d := r.D6(t.DiceCount())
	return DamageResult{
		Type:   t,
		Dice:   d,
		Damage: formula.Damage(t, d),
	}
}
