package world

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/daemonforge/solorpg/internal/rules"
)

// Hostility is how an NPC regards the player.
type Hostility int

const (
	Passive Hostility = iota
	Neutral
	Hostile
)

var hostilityNames = [...]string{"Passive", "Neutral", "Hostile"}

func (h Hostility) String() string {
	if h >= 0 && int(h) < len(hostilityNames) {
		return hostilityNames[h]
	}
	return fmt.Sprintf("Hostility(%d)", int(h))
}

// ParseHostility accepts a name or an ordinal.
func ParseHostility(s string) (Hostility, error) {
	i, err := parseEnum(s, hostilityNames[:])
	if err != nil {
		return 0, fmt.Errorf("hostility: %w", err)
	}
	return Hostility(i), nil
}

// Behavior is an NPC's movement and engagement pattern.
type Behavior int

const (
	Static Behavior = iota
	Patrol
	Aggressive
	Friendly
)

var behaviorNames = [...]string{"Static", "Patrol", "Aggressive", "Friendly"}

func (b Behavior) String() string {
	if b >= 0 && int(b) < len(behaviorNames) {
		return behaviorNames[b]
	}
	return fmt.Sprintf("Behavior(%d)", int(b))
}

// ParseBehavior accepts a name or an ordinal.
func ParseBehavior(s string) (Behavior, error) {
	i, err := parseEnum(s, behaviorNames[:])
	if err != nil {
		return 0, fmt.Errorf("behavior: %w", err)
	}
	return Behavior(i), nil
}

// Ability is one of the six NPC ability scores of the content model.
// It is not a rules.Attribute; see RuleAttributes for the mapping.
type Ability int

const (
	Strength Ability = iota
	Dexterity
	Intelligence
	Constitution
	Wisdom
	Charisma
)

var abilityNames = [...]string{"Strength", "Dexterity", "Intelligence", "Constitution", "Wisdom", "Charisma"}

// Abilities lists every ability in declaration order.
var Abilities = []Ability{Strength, Dexterity, Intelligence, Constitution, Wisdom, Charisma}

func (a Ability) String() string {
	if a >= 0 && int(a) < len(abilityNames) {
		return abilityNames[a]
	}
	return fmt.Sprintf("Ability(%d)", int(a))
}

// AbilityScores are the six independent scores, indexed by Ability.
type AbilityScores [6]int

// Get returns one score.
func (s AbilityScores) Get(a Ability) int {
	if a < 0 || int(a) >= len(s) {
		return 0
	}
	return s[a]
}

// AbilityModifier converts a 3-18 style score to the rule engine's scale:
// floor((score-10)/2).
func AbilityModifier(score int) int {
	d := score - 10
	if d < 0 {
		return (d - 1) / 2
	}
	return d / 2
}

// RuleAttributes maps the six content abilities onto the four rule attributes:
//
//	Body     <- mean of Strength, Dexterity, Constitution
//	Mind     <- Intelligence
//	Soul     <- Wisdom
//	Presence <- Charisma
//
// each passed through AbilityModifier. The mean truncates.
func RuleAttributes(s AbilityScores) map[rules.Attribute]int {
	body := (s.Get(Strength) + s.Get(Dexterity) + s.Get(Constitution)) / 3
	return map[rules.Attribute]int{
		rules.Body:     AbilityModifier(body),
		rules.Mind:     AbilityModifier(s.Get(Intelligence)),
		rules.Soul:     AbilityModifier(s.Get(Wisdom)),
		rules.Presence: AbilityModifier(s.Get(Charisma)),
	}
}

// NPC is a non-player character template.
type NPC struct {
	ID          string
	Name        string
	Description string
	FactionID   string // empty = unaffiliated
	Hostility   Hostility
	Attributes  AbilityScores
	Behavior    Behavior
	Inventory   []string
}

// RuleStats is the NPC as the rule engine sees it. Content carries no NPC
// skills, so every skill is zero.
func (n *NPC) RuleStats() rules.Stats {
	return rules.Stats{
		Attributes: RuleAttributes(n.Attributes),
		Skills:     map[rules.Skill]int{},
	}
}

// Unaffiliated reports whether the NPC belongs to no faction.
func (n *NPC) Unaffiliated() bool {
	return n.FactionID == ""
}

func parseEnum(s string, names []string) (int, error) {
	s = strings.TrimSpace(s)
	for i, name := range names {
		if name == s {
			return i, nil
		}
	}
	if i, err := strconv.Atoi(s); err == nil && i >= 0 && i < len(names) {
		return i, nil
	}
	return 0, fmt.Errorf("value %q not in %v", s, names)
}
