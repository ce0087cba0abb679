// Package game holds the mutable per-session aggregate and resolves player
// actions against it.
package game

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/daemonforge/solorpg/internal/daemon"
	"github.com/daemonforge/solorpg/internal/world"
)

// PlayerID is the actor id of the player in daemon tables and effect strings.
const PlayerID = "player"

// State is one play session. It is created when a package is selected,
// mutated once per action, and discarded when the session ends.
// Accessed from a single goroutine; no locks.
type State struct {
	ID       uuid.UUID
	World    *world.Package // shared, read-only
	Location *world.Location // current entry of Locations

	// Locations holds this session's copies of the locations visited so
	// far. Taken items and defeated NPCs are removed from these, never from
	// the package.
	Locations map[string]*world.Location

	Player    Character
	Inventory []string
	Flags     map[string]bool
	Turn      int

	InCombat    bool
	CombatantID string

	Daemons *daemon.Table

	// NodeID is the story node being played, empty when none.
	NodeID string
	// NpcHP tracks the hit points of NPCs engaged in combat.
	NpcHP map[string]int

	log *zap.Logger
}

// NewState starts a session at the package's start location.
func NewState(pkg *world.Package, player Character, log *zap.Logger) (*State, error) {
	start := pkg.StartLocation()
	if start == nil {
		return nil, fmt.Errorf("start location %q not found", pkg.Definition.StartLocationID)
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &State{
		ID:        uuid.New(),
		World:     pkg,
		Locations: map[string]*world.Location{},
		Player:    player,
		Inventory: []string{},
		Flags:     map[string]bool{},
		Daemons:   daemon.NewTable(),
		NpcHP:     map[string]int{},
		log:       log,
	}
	s.Location = s.visit(start)
	// A node nobody owns is the package's opening narration.
	if nodes := s.NodesOwnedBy(""); len(nodes) > 0 {
		s.NodeID = nodes[0].ID
	}
	return s, nil
}

// visit returns the session copy of a package location, cloning it on the
// first visit.
func (s *State) visit(loc *world.Location) *world.Location {
	if c, ok := s.Locations[loc.ID]; ok {
		return c
	}
	c := loc.Clone()
	s.Locations[loc.ID] = &c
	return &c
}

// SetFlag sets a story flag.
func (s *State) SetFlag(name string, value bool) {
	s.Flags[name] = value
}

// Flag reads a story flag; unset flags are false.
func (s *State) Flag(name string) bool {
	return s.Flags[name]
}

// EnsureDaemon returns the actor's daemon, creating it with zeroed drives
// if this is the first time the actor is touched.
func (s *State) EnsureDaemon(actor string) *daemon.State {
	if _, ok := s.Daemons.Lookup(actor); !ok {
		s.log.Debug("daemon created", zap.String("session", s.ID.String()), zap.String("actor", actor))
	}
	return s.Daemons.Ensure(actor)
}

// AdjustRelation is reserved for faction-relation effects and changes nothing.
func (s *State) AdjustRelation(key, value string) {
	s.log.Debug("relation effect ignored", zap.String("key", key), zap.String("value", value))
}

// CurrentNode returns the story node being played, or nil.
func (s *State) CurrentNode() *world.StoryNode {
	if s.NodeID == "" {
		return nil
	}
	return s.World.StoryNodes[s.NodeID]
}

// HasItem reports whether the player carries the item.
func (s *State) HasItem(id string) bool {
	for _, it := range s.Inventory {
		if it == id {
			return true
		}
	}
	return false
}

// NodesOwnedBy returns the story nodes owned by an NPC, in the package's
// StoryNodeIds order.
func (s *State) NodesOwnedBy(npcID string) []*world.StoryNode {
	var out []*world.StoryNode
	for _, id := range s.World.Definition.StoryNodeIDs {
		if n, ok := s.World.StoryNodes[id]; ok && n.OwnerNpcID == npcID {
			out = append(out, n)
		}
	}
	return out
}
