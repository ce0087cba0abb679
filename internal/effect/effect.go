// Package effect decodes the Type:Key:Value strings attached to story choices
// and events into typed effects, and applies them to a game state.
package effect

import (
	"strconv"
	"strings"
)

// Effect is one of SetFlag, AdjustDaemonDrive, AdjustRelation or Unknown.
type Effect interface {
	isEffect()
	String() string
}

// SetFlag sets a boolean story flag.
type SetFlag struct {
	Name  string
	Value bool
}

// AdjustDaemonDrive adds Delta to one drive of an actor's daemon.
type AdjustDaemonDrive struct {
	Actor string
	Drive string
	Delta int
}

// AdjustRelation is reserved for faction-relation changes and applies as a no-op.
type AdjustRelation struct {
	Key   string
	Value string
}

// Unknown keeps an effect whose type is not recognised. Applying it does nothing.
type Unknown struct {
	Raw string
}

func (SetFlag) isEffect()           {}
func (AdjustDaemonDrive) isEffect() {}
func (AdjustRelation) isEffect()    {}
func (Unknown) isEffect()           {}

func (e SetFlag) String() string {
	v := "0"
	if e.Value {
		v = "1"
	}
	return "Flag:" + e.Name + ":" + v
}

func (e AdjustDaemonDrive) String() string {
	return "Daemon:" + e.Actor + "|" + e.Drive + ":" + strconv.Itoa(e.Delta)
}

func (e AdjustRelation) String() string {
	if e.Value == "" {
		return "Relation:" + e.Key
	}
	return "Relation:" + e.Key + ":" + e.Value
}

func (e Unknown) String() string { return e.Raw }

// Parse decodes one effect string. It reports false for blank input and for
// input with fewer than two colon-separated fields; such strings have no
// effect at all. Strings of an unrecognised type decode to Unknown.
func Parse(s string) (Effect, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return nil, false
	}
	typ, key := parts[0], parts[1]
	value := ""
	if len(parts) == 3 {
		value = parts[2]
	}

	switch typ {
	case "Flag":
		if len(parts) < 3 {
			value = "1"
		}
		return SetFlag{Name: key, Value: value == "1"}, true
	case "Daemon":
		actor, drive, ok := strings.Cut(key, "|")
		if !ok {
			return Unknown{Raw: s}, true
		}
		delta, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			delta = 0
		}
		return AdjustDaemonDrive{Actor: actor, Drive: drive, Delta: delta}, true
	case "Relation":
		return AdjustRelation{Key: key, Value: value}, true
	default:
		return Unknown{Raw: s}, true
	}
}

// ParseAll decodes a list of effect strings, dropping the ones that carry
// no effect. The order of the rest is preserved.
func ParseAll(raw []string) []Effect {
	out := make([]Effect, 0, len(raw))
	for _, s := range raw {
		if e, ok := Parse(s); ok {
			out = append(out, e)
		}
	}
	return out
}
