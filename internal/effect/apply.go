package effect

import "github.com/daemonforge/solorpg/internal/daemon"

// Target is the mutable state effects act on.
type Target interface {
	SetFlag(name string, value bool)
	EnsureDaemon(actor string) *daemon.State
	AdjustRelation(key, value string)
}

// Apply runs a single effect against t.
func Apply(t Target, e Effect) {
	switch e := e.(type) {
	case SetFlag:
		t.SetFlag(e.Name, e.Value)
	case AdjustDaemonDrive:
		t.EnsureDaemon(e.Actor).Adjust(e.Drive, e.Delta)
	case AdjustRelation:
		t.AdjustRelation(e.Key, e.Value)
	}
}

// ApplyAll runs effects sequentially, in order.
func ApplyAll(t Target, effects []Effect) {
	for _, e := range effects {
		Apply(t, e)
	}
}

// ApplyString parses and applies a raw effect string. Blank or malformed
// input is a no-op.
func ApplyString(t Target, s string) {
	if e, ok := Parse(s); ok {
		Apply(t, e)
	}
}
