package data

import (
	"fmt"
	"sort"

	"github.com/daemonforge/solorpg/internal/world"
)

// ReferenceIssue is one id that does not resolve inside the package.
type ReferenceIssue struct {
	Source string // e.g. "location:hall"
	Field  string
	Target string
}

func (r ReferenceIssue) String() string {
	return fmt.Sprintf("%s %s -> %q", r.Source, r.Field, r.Target)
}

// CheckReferences lists every cross-reference that does not resolve:
// location exits, npcs and items; NPC factions and inventories; story owners,
// next nodes and opponents. Results are sorted for stable output.
func CheckReferences(p *world.Package) []ReferenceIssue {
	var out []ReferenceIssue
	add := func(src, field, target string) {
		out = append(out, ReferenceIssue{Source: src, Field: field, Target: target})
	}

	for id, loc := range p.Locations {
		src := "location:" + id
		for dir, to := range loc.Connections {
			if _, ok := p.Locations[to]; !ok {
				add(src, "exit "+dir, to)
			}
		}
		for _, n := range loc.NpcIDs {
			if _, ok := p.NPCs[n]; !ok {
				add(src, "npc", n)
			}
		}
		for _, it := range loc.ItemIDs {
			if _, ok := p.Items[it]; !ok {
				add(src, "item", it)
			}
		}
	}

	for id, npc := range p.NPCs {
		src := "npc:" + id
		if !npc.Unaffiliated() {
			if _, ok := p.Factions[npc.FactionID]; !ok {
				add(src, "faction", npc.FactionID)
			}
		}
		for _, it := range npc.Inventory {
			if _, ok := p.Items[it]; !ok {
				add(src, "inventory", it)
			}
		}
	}

	for id, node := range p.StoryNodes {
		src := "story:" + id
		if node.OwnerNpcID != "" {
			if _, ok := p.NPCs[node.OwnerNpcID]; !ok {
				add(src, "owner", node.OwnerNpcID)
			}
		}
		for i, c := range node.Choices {
			if !c.Terminal() {
				if _, ok := p.StoryNodes[c.Next]; !ok {
					add(src, fmt.Sprintf("choice %d next", i), c.Next)
				}
			}
			if c.SkillCheck != nil && c.SkillCheck.OpponentNpcID != "" {
				if _, ok := p.NPCs[c.SkillCheck.OpponentNpcID]; !ok {
					add(src, fmt.Sprintf("choice %d opponent", i), c.SkillCheck.OpponentNpcID)
				}
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		if out[i].Field != out[j].Field {
			return out[i].Field < out[j].Field
		}
		return out[i].Target < out[j].Target
	})
	return out
}
