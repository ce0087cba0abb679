// Package daemon holds the hidden drive vectors that bend an actor's checks.
package daemon

import (
	"sort"

	"github.com/daemonforge/solorpg/internal/rules"
)

// Default drive names. Drives outside this set are stored but never read
// by skill modifiers.
const (
	Ambition  = "Ambition"
	Loyalty   = "Loyalty"
	Rage      = "Rage"
	Curiosity = "Curiosity"
	Presence  = "Presence"
)

// DefaultDrives lists the drives every new daemon starts with, all at zero.
var DefaultDrives = []string{Ambition, Loyalty, Rage, Curiosity, Presence}

// State is one actor's drive vector.
type State struct {
	Drives map[string]int
}

// NewState returns a daemon with every default drive at zero.
func NewState() *State {
	s := &State{Drives: make(map[string]int, len(DefaultDrives))}
	for _, d := range DefaultDrives {
		s.Drives[d] = 0
	}
	return s
}

// Drive returns a drive value, 0 when unset.
func (s *State) Drive(name string) int {
	if s == nil {
		return 0
	}
	return s.Drives[name]
}

// Adjust adds delta to the named drive, creating it if needed.
func (s *State) Adjust(name string, delta int) {
	if s.Drives == nil {
		s.Drives = make(map[string]int)
	}
	s.Drives[name] += delta
}

// SkillModifier is the fixed drive-to-skill mapping:
//
//	Social    Ambition/2 + Presence/3
//	Combat    Rage/2
//	Knowledge Curiosity/2
//
// Every other skill gets 0. Division truncates.
func (s *State) SkillModifier(skill rules.Skill) int {
	if s == nil {
		return 0
	}
	switch skill {
	case rules.Social:
		return s.Drives[Ambition]/2 + s.Drives[Presence]/3
	case rules.Combat:
		return s.Drives[Rage] / 2
	case rules.Knowledge:
		return s.Drives[Curiosity] / 2
	default:
		return 0
	}
}

// Names returns the drive names in sorted order.
func (s *State) Names() []string {
	names := make([]string, 0, len(s.Drives))
	for n := range s.Drives {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Table maps actor ids to daemons. Owned by exactly one game state; never shared.
type Table struct {
	states map[string]*State
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{states: make(map[string]*State)}
}

// Ensure returns the actor's daemon, creating a zeroed one first if absent.
// This is the only way a daemon comes into existence.
func (t *Table) Ensure(actor string) *State {
	if s, ok := t.states[actor]; ok {
		return s
	}
	s := NewState()
	t.states[actor] = s
	return s
}

// Lookup returns the actor's daemon without creating one.
func (t *Table) Lookup(actor string) (*State, bool) {
	if t == nil {
		return nil, false
	}
	s, ok := t.states[actor]
	return s, ok
}

// Modifier is the actor's skill modifier, 0 when the actor has no daemon.
func (t *Table) Modifier(actor string, skill rules.Skill) int {
	s, ok := t.Lookup(actor)
	if !ok {
		return 0
	}
	return s.SkillModifier(skill)
}

// Len returns the number of daemons.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.states)
}

// Actors returns the actor ids in sorted order.
func (t *Table) Actors() []string {
	ids := make([]string, 0, len(t.states))
	for id := range t.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
