// Package rules resolves attribute+skill checks, opposed checks, combat and damage
// on a 2d6 scale. Every function is total: unknown attributes or skills count as 0.
package rules

import (
	"fmt"
	"strings"
)

// Attribute is one of the four rule-engine attributes. It is deliberately a
// different enumeration from the six NPC ability scores of the content model.
type Attribute int

const (
	Body Attribute = iota
	Mind
	Soul
	Presence
)

var attributeNames = [...]string{"Body", "Mind", "Soul", "Presence"}

// Attributes lists every attribute in declaration order.
var Attributes = []Attribute{Body, Mind, Soul, Presence}

func (a Attribute) String() string {
	if a >= 0 && int(a) < len(attributeNames) {
		return attributeNames[a]
	}
	return fmt.Sprintf("Attribute(%d)", int(a))
}

// ParseAttribute resolves an attribute by name, case-insensitively.
func ParseAttribute(s string) (Attribute, error) {
	for i, name := range attributeNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return Attribute(i), nil
		}
	}
	return 0, fmt.Errorf("unknown attribute %q", s)
}

// Skill is one of the seven rule-engine skills.
type Skill int

const (
	Combat Skill = iota
	Social
	Knowledge
	Awareness
	Will
	Occult
	Stealth
)

var skillNames = [...]string{"Combat", "Social", "Knowledge", "Awareness", "Will", "Occult", "Stealth"}

// Skills lists every skill in declaration order.
var Skills = []Skill{Combat, Social, Knowledge, Awareness, Will, Occult, Stealth}

func (s Skill) String() string {
	if s >= 0 && int(s) < len(skillNames) {
		return skillNames[s]
	}
	return fmt.Sprintf("Skill(%d)", int(s))
}

// ParseSkill resolves a skill by name, case-insensitively.
func ParseSkill(s string) (Skill, error) {
	for i, name := range skillNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return Skill(i), nil
		}
	}
	return 0, fmt.Errorf("unknown skill %q", s)
}

// Stats is the attribute and skill table a check reads from.
// Missing entries read as zero.
type Stats struct {
	Attributes map[Attribute]int
	Skills     map[Skill]int
}

// Attr returns the attribute value, 0 when absent.
func (s Stats) Attr(a Attribute) int { return s.Attributes[a] }

// Skill returns the skill value, 0 when absent.
func (s Stats) Skill(k Skill) int { return s.Skills[k] }

// CharacterStats are the values derived from Stats.
type CharacterStats struct {
	MaxHP   int
	Defense int
}

// DeriveCharacterStats computes max HP and passive defense.
func DeriveCharacterStats(s Stats) CharacterStats {
	return CharacterStats{
		MaxHP:   10 + 2*s.Attr(Body),
		Defense: Defense(s),
	}
}

// Defense is 6 + Body + Combat, or 6 + Body + Awareness when the
// character has no Combat skill.
func Defense(s Stats) int {
	skill := s.Skill(Combat)
	if skill <= 0 {
		skill = s.Skill(Awareness)
	}
	return 6 + s.Attr(Body) + skill
}
