package game

import (
	"github.com/daemonforge/solorpg/internal/dice"
	"github.com/daemonforge/solorpg/internal/rules"
)

// Character is the player's sheet.
type Character struct {
	Name         string
	Attributes   map[rules.Attribute]int
	Skills       map[rules.Skill]int
	HP           int
	MaxHP        int
	Equipment    []string
	ActiveQuests []string
	Status       map[string]int // status effect -> remaining turns
}

// NewCharacter builds a character at full health. Missing attributes and
// skills count as zero.
func NewCharacter(name string, attrs map[rules.Attribute]int, skills map[rules.Skill]int) Character {
	c := Character{
		Name:         name,
		Attributes:   make(map[rules.Attribute]int, len(rules.Attributes)),
		Skills:       make(map[rules.Skill]int, len(rules.Skills)),
		Equipment:    []string{},
		ActiveQuests: []string{},
		Status:       map[string]int{},
	}
	for _, a := range rules.Attributes {
		c.Attributes[a] = attrs[a]
	}
	for _, s := range rules.Skills {
		c.Skills[s] = skills[s]
	}
	c.MaxHP = rules.DeriveCharacterStats(c.Stats()).MaxHP
	c.HP = c.MaxHP
	return c
}

// RollAttributes rolls each attribute as (1d6+1)/2, giving 1 to 3.
func RollAttributes(r *dice.Roller) map[rules.Attribute]int {
	out := make(map[rules.Attribute]int, len(rules.Attributes))
	for _, a := range rules.Attributes {
		out[a] = (r.Die() + 1) / 2
	}
	return out
}

// Stats is the character as the rule engine sees it.
func (c *Character) Stats() rules.Stats {
	return rules.Stats{Attributes: c.Attributes, Skills: c.Skills}
}

// Defense is the character's passive defense.
func (c *Character) Defense() int {
	return rules.Defense(c.Stats())
}

// Damage lowers HP, never below zero. Returns the remaining HP.
func (c *Character) Damage(n int) int {
	c.HP = max(0, c.HP-n)
	return c.HP
}

// Alive reports whether HP is above zero.
func (c *Character) Alive() bool {
	return c.HP > 0
}
