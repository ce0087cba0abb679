package game

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/daemonforge/solorpg/internal/daemon"
	"github.com/daemonforge/solorpg/internal/dice"
	"github.com/daemonforge/solorpg/internal/effect"
	"github.com/daemonforge/solorpg/internal/rules"
	"github.com/daemonforge/solorpg/internal/world"
)

var (
	ErrNoStory  = errors.New("no story node in progress")
	ErrNoChoice = errors.New("no such choice")
	ErrNoTarget = errors.New("target not present")
)

// Entry is one resolved action, as handed to a Recorder.
type Entry struct {
	SessionID uuid.UUID
	Turn      int
	Action    string
	Actor     string
	Target    string
	Total     int
	Success   bool
	Detail    string
}

// Recorder receives an entry for every resolved action.
type Recorder interface {
	Record(e Entry)
}

type nopRecorder struct{}

func (nopRecorder) Record(Entry) {}

// Session resolves player actions against a State, one at a time.
type Session struct {
	State *State

	roller *dice.Roller
	damage rules.DamageFormula
	rec    Recorder
	log    *zap.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithDamageFormula replaces the standard damage table.
func WithDamageFormula(f rules.DamageFormula) Option {
	return func(s *Session) { s.damage = f }
}

// WithRecorder attaches a journal.
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.rec = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.log = l }
}

// NewSession binds a state to the roller every check in it will use.
func NewSession(st *State, roller *dice.Roller, opts ...Option) *Session {
	s := &Session{
		State:  st,
		roller: roller,
		damage: rules.StandardDamage{},
		rec:    nopRecorder{},
		log:    zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Session) record(action, target string, total int, success bool, detail string) {
	s.rec.Record(Entry{
		SessionID: s.State.ID,
		Turn:      s.State.Turn,
		Action:    action,
		Actor:     PlayerID,
		Target:    target,
		Total:     total,
		Success:   success,
		Detail:    detail,
	})
}

// ChoiceOutcome describes a resolved story choice.
type ChoiceOutcome struct {
	Choice  world.StoryChoice
	Check   *daemon.CheckOutcome   // static skill check, if any
	Opposed *daemon.OpposedOutcome // opposed check against an NPC, if any
	Passed  bool
	Ended   bool // the story reached a terminal choice
}

// Talk opens the first story node owned by an NPC in the current location.
func (s *Session) Talk(npcID string) (*world.StoryNode, error) {
	st := s.State
	if !st.Location.HasNPC(npcID) {
		return nil, fmt.Errorf("%w: %s", ErrNoTarget, npcID)
	}
	nodes := st.NodesOwnedBy(npcID)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s has nothing to say", ErrNoStory, npcID)
	}
	st.NodeID = nodes[0].ID
	st.Turn++
	s.record("talk", npcID, 0, true, st.NodeID)
	return nodes[0], nil
}

// StartStory jumps to a story node by id. Like Talk it takes a turn.
func (s *Session) StartStory(nodeID string) error {
	st := s.State
	if _, ok := st.World.StoryNodes[nodeID]; !ok {
		return fmt.Errorf("%w: %s", ErrNoStory, nodeID)
	}
	st.NodeID = nodeID
	st.Turn++
	s.record("story", nodeID, 0, true, "")
	return nil
}

// Choose resolves choice index of the current node. A gated choice rolls
// the player's check (opposed when it names an opponent). On success, or
// when there is no check, the effects run in order and the story moves on.
// On failure nothing changes except the turn counter.
func (s *Session) Choose(index int) (ChoiceOutcome, error) {
	st := s.State
	node := st.CurrentNode()
	if node == nil {
		return ChoiceOutcome{}, ErrNoStory
	}
	if index < 0 || index >= len(node.Choices) {
		return ChoiceOutcome{}, fmt.Errorf("%w: %d of %d", ErrNoChoice, index, len(node.Choices))
	}
	choice := node.Choices[index]
	out := ChoiceOutcome{Choice: choice, Passed: true}
	total := 0

	if sc := choice.SkillCheck; sc != nil {
		opponent := s.opponent(sc.OpponentNpcID)
		if opponent != nil {
			res := daemon.ResolveOpposed(s.roller, st.Daemons, PlayerID, st.Player.Stats(),
				opponent.ID, opponent.RuleStats(), sc.Attribute, sc.Skill)
			out.Opposed = &res
			out.Passed = res.AttackerWins
			total = res.Attacker.AdjustedTotal
		} else {
			res := daemon.ResolveSkillCheck(s.roller, st.Daemons, PlayerID, daemon.Check{
				Attribute:    sc.Attribute,
				Skill:        sc.Skill,
				TargetNumber: sc.TargetNumber,
			}, st.Player.Stats(), dice.Normal)
			out.Check = &res
			out.Passed = res.Success
			total = res.AdjustedTotal
		}
	}

	st.Turn++
	if out.Passed {
		effect.ApplyAll(st, choice.Effects)
		if choice.Terminal() {
			st.NodeID = ""
			out.Ended = true
		} else if _, ok := st.World.StoryNodes[choice.Next]; ok {
			st.NodeID = choice.Next
		} else {
			s.log.Warn("story continues to a missing node",
				zap.String("node", node.ID), zap.String("next", choice.Next))
			st.NodeID = ""
			out.Ended = true
		}
	}
	s.record("choose", node.ID, total, out.Passed, choice.Label)
	return out, nil
}

// opponent returns the NPC a check is opposed by, or nil for a static check.
// A named opponent missing from the package degrades to a static check.
func (s *Session) opponent(id string) *world.NPC {
	if id == "" {
		return nil
	}
	npc, ok := s.State.World.NPCs[id]
	if !ok {
		s.log.Warn("opponent not in package, using static check", zap.String("npc", id))
		return nil
	}
	return npc
}

// Move follows an exit of the current location. Unknown exits and exits to
// missing locations do nothing and report false. A location keeps whatever
// was taken from it or defeated in it when the player comes back.
func (s *Session) Move(direction string) bool {
	st := s.State
	to, ok := st.Location.Connections[direction]
	if !ok {
		return false
	}
	loc, ok := st.World.Locations[to]
	if !ok {
		s.log.Warn("exit leads nowhere", zap.String("from", st.Location.ID), zap.String("to", to))
		return false
	}
	st.Location = st.visit(loc)
	st.InCombat = false
	st.CombatantID = ""
	st.Turn++
	s.record("move", to, 0, true, direction)
	return true
}

// Take picks up an item lying in the current location.
func (s *Session) Take(itemID string) bool {
	st := s.State
	if !st.Location.RemoveItem(itemID) {
		return false
	}
	st.Inventory = append(st.Inventory, itemID)
	st.Turn++
	s.record("take", itemID, 0, true, "")
	return true
}

// TriggerEvent applies a package event's effects in order.
func (s *Session) TriggerEvent(eventID string) bool {
	ev, ok := s.State.World.Events[eventID]
	if !ok {
		return false
	}
	effect.ApplyAll(s.State, ev.Effects)
	s.State.Turn++
	s.record("event", eventID, 0, true, ev.Name)
	return true
}

// AttackOutcome is one round of combat.
type AttackOutcome struct {
	Attack   rules.AttackResult
	Damage   *rules.DamageResult
	NpcHP    int
	Defeated bool

	// Counter is the NPC's return strike; nil when it is defeated or passive.
	Counter       *rules.AttackResult
	CounterDamage *rules.DamageResult
}

// Attack strikes an NPC in the current location with the given damage type.
// A surviving, non-passive NPC strikes back unarmed. An NPC brought to zero
// HP is removed from the location and combat ends.
func (s *Session) Attack(npcID string, dt rules.DamageType) (AttackOutcome, error) {
	st := s.State
	npc, ok := st.World.NPCs[npcID]
	if !ok || !st.Location.HasNPC(npcID) {
		return AttackOutcome{}, fmt.Errorf("%w: %s", ErrNoTarget, npcID)
	}
	npcStats := npc.RuleStats()
	hp, ok := st.NpcHP[npcID]
	if !ok {
		// Very weak stat blocks derive to zero HP; they still take a hit to fall.
		hp = max(1, rules.DeriveCharacterStats(npcStats).MaxHP)
	}

	st.InCombat = true
	st.CombatantID = npcID
	st.Turn++

	var out AttackOutcome
	out.Attack = rules.ResolveCombatAttack(s.roller, st.Player.Stats(), npcStats)
	if out.Attack.Hit {
		dmg := rules.ResolveDamageWith(s.roller, s.damage, dt)
		out.Damage = &dmg
		hp = max(0, hp-dmg.Damage)
	}
	st.NpcHP[npcID] = hp
	out.NpcHP = hp

	if out.Attack.Hit && hp == 0 {
		out.Defeated = true
		st.Location.RemoveNPC(npcID)
		st.InCombat = false
		st.CombatantID = ""
	} else if npc.Hostility != world.Passive {
		counter := rules.ResolveCombatAttack(s.roller, npcStats, st.Player.Stats())
		out.Counter = &counter
		if counter.Hit {
			dmg := rules.ResolveDamageWith(s.roller, s.damage, rules.Unarmed)
			out.CounterDamage = &dmg
			st.Player.Damage(dmg.Damage)
		}
	}

	s.record("attack", npcID, out.Attack.Attack.Total, out.Attack.Hit, dt.String())
	return out, nil
}
