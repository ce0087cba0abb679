// Package world is the typed, immutable content graph of a loaded world package.
package world

import (
	"time"

	"github.com/daemonforge/solorpg/internal/effect"
	"github.com/daemonforge/solorpg/internal/rules"
)

// StoryEnd marks a choice that ends the story. An empty Next means the same.
const StoryEnd = "END"

// Definition is world.json: package metadata plus ordered id lists.
// The lists keep authoring order for display; lookups go through the maps on Package.
type Definition struct {
	ID              string
	Name            string
	Description     string
	Version         string
	Author          string
	CreatedAt       time.Time
	StartLocationID string
	LocationIDs     []string
	NpcIDs          []string
	ItemIDs         []string
	FactionIDs      []string
	StoryNodeIDs    []string
}

// Package is a loaded world. Nothing mutates it after the loader returns.
type Package struct {
	Definition Definition
	Locations  map[string]*Location
	NPCs       map[string]*NPC
	Factions   map[string]*Faction
	Items      map[string]*Item
	StoryNodes map[string]*StoryNode
	Events     map[string]*Event

	// Digest is the hex BLAKE2b-256 of the archive bytes.
	Digest string
}

// StartLocation returns the start location, or nil when the definition
// points nowhere.
func (p *Package) StartLocation() *Location {
	return p.Locations[p.Definition.StartLocationID]
}

// Location is a room. Exits map a direction label to a location id.
type Location struct {
	ID          string
	Name        string
	Description string
	Connections map[string]string
	NpcIDs      []string
	ItemIDs     []string
}

// Clone returns a deep copy. Game state keeps its own copy of the current
// location because NPCs and items get removed from it during play.
func (l *Location) Clone() Location {
	c := Location{
		ID:          l.ID,
		Name:        l.Name,
		Description: l.Description,
		Connections: make(map[string]string, len(l.Connections)),
		NpcIDs:      append([]string(nil), l.NpcIDs...),
		ItemIDs:     append([]string(nil), l.ItemIDs...),
	}
	for k, v := range l.Connections {
		c.Connections[k] = v
	}
	return c
}

// HasNPC reports whether the NPC is present.
func (l *Location) HasNPC(id string) bool {
	return contains(l.NpcIDs, id)
}

// HasItem reports whether the item is present.
func (l *Location) HasItem(id string) bool {
	return contains(l.ItemIDs, id)
}

// RemoveNPC drops an NPC id. Returns false if it was not there.
func (l *Location) RemoveNPC(id string) bool {
	var ok bool
	l.NpcIDs, ok = remove(l.NpcIDs, id)
	return ok
}

// RemoveItem drops an item id. Returns false if it was not there.
func (l *Location) RemoveItem(id string) bool {
	var ok bool
	l.ItemIDs, ok = remove(l.ItemIDs, id)
	return ok
}

// Faction holds signed, unbounded affinities toward other factions.
type Faction struct {
	ID          string
	Name        string
	Description string
	Ideology    string
	Relations   map[string]int
}

// Item is a carryable object.
type Item struct {
	ID          string
	Name        string
	Description string
}

// Event is a package-level scripted happening: a bundle of effects.
type Event struct {
	ID          string
	Name        string
	Description string
	Effects     []effect.Effect
}

// StoryNode is one page of branching story owned by an NPC.
type StoryNode struct {
	ID         string
	Title      string
	Text       string
	OwnerNpcID string
	Choices    []StoryChoice
}

// StoryChoice is an option offered on a node; order is presentation order.
type StoryChoice struct {
	Label      string
	Next       string
	Effects    []effect.Effect
	SkillCheck *SkillCheck
}

// Terminal reports whether the choice ends the story.
func (c StoryChoice) Terminal() bool {
	return c.Next == "" || c.Next == StoryEnd
}

// SkillCheck gates a choice. An empty OpponentNpcID means a static check
// against TargetNumber.
type SkillCheck struct {
	Attribute     rules.Attribute
	Skill         rules.Skill
	TargetNumber  int
	OpponentNpcID string
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) ([]string, bool) {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...), true
		}
	}
	return ids, false
}
