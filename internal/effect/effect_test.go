package effect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daemonforge/solorpg/internal/daemon"
)

type fakeTarget struct {
	flags     map[string]bool
	daemons   *daemon.Table
	relations []string
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{flags: map[string]bool{}, daemons: daemon.NewTable()}
}

func (f *fakeTarget) SetFlag(name string, value bool)         { f.flags[name] = value }
func (f *fakeTarget) EnsureDaemon(actor string) *daemon.State { return f.daemons.Ensure(actor) }
func (f *fakeTarget) AdjustRelation(key, value string)        { f.relations = append(f.relations, key) }

func TestParse(t *testing.T) {
	tcs := []struct {
		in   string
		want Effect
		ok   bool
	}{
		{in: "", ok: false},
		{in: "   ", ok: false},
		{in: "Flag", ok: false},
		{in: "Flag:Started:1", want: SetFlag{Name: "Started", Value: true}, ok: true},
		{in: "Flag:Started:0", want: SetFlag{Name: "Started", Value: false}, ok: true},
		{in: "Flag:Started:yes", want: SetFlag{Name: "Started", Value: false}, ok: true},
		{in: "Flag:Started", want: SetFlag{Name: "Started", Value: true}, ok: true},
		{in: "Daemon:npc1|Rage:5", want: AdjustDaemonDrive{Actor: "npc1", Drive: "Rage", Delta: 5}, ok: true},
		{in: "Daemon:npc1|Rage:-2", want: AdjustDaemonDrive{Actor: "npc1", Drive: "Rage", Delta: -2}, ok: true},
		{in: "Daemon:npc1|Rage:lots", want: AdjustDaemonDrive{Actor: "npc1", Drive: "Rage", Delta: 0}, ok: true},
		{in: "Daemon:npc1|Rage", want: AdjustDaemonDrive{Actor: "npc1", Drive: "Rage", Delta: 0}, ok: true},
		{in: "Daemon:npc1:5", want: Unknown{Raw: "Daemon:npc1:5"}, ok: true},
		{in: "Relation:a|b:3", want: AdjustRelation{Key: "a|b", Value: "3"}, ok: true},
		{in: "Teleport:x:y", want: Unknown{Raw: "Teleport:x:y"}, ok: true},
		{in: "Flag:a:1:extra", want: SetFlag{Name: "a", Value: false}, ok: true},
	}
	for _, tc := range tcs {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := Parse(tc.in)
			require.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestApplyStringFlag(t *testing.T) {
	f := newFakeTarget()
	ApplyString(f, "Flag:Started:1")
	assert.True(t, f.flags["Started"])
	ApplyString(f, "Flag:Started:0")
	assert.False(t, f.flags["Started"])
}

func TestApplyStringDaemonCreatesZeroedDaemon(t *testing.T) {
	f := newFakeTarget()
	ApplyString(f, "Daemon:npc1|Rage:5")

	s, ok := f.daemons.Lookup("npc1")
	require.True(t, ok)
	assert.Equal(t, 5, s.Drive(daemon.Rage))
	for _, d := range []string{daemon.Ambition, daemon.Loyalty, daemon.Curiosity, daemon.Presence} {
		assert.Zero(t, s.Drive(d), d)
	}

	ApplyString(f, "Daemon:npc1|Rage:5")
	assert.Equal(t, 10, s.Drive(daemon.Rage))
}

func TestApplyIgnoresUnknownAndBlank(t *testing.T) {
	f := newFakeTarget()
	for _, s := range []string{"", "Flag", "Teleport:x:y", "Daemon:nobar:3"} {
		ApplyString(f, s)
	}
	assert.Empty(t, f.flags)
	assert.Zero(t, f.daemons.Len())
}

func TestApplyAllRunsInOrder(t *testing.T) {
	f := newFakeTarget()
	ApplyAll(f, ParseAll([]string{"Flag:door:1", "", "Flag:door:0", "Relation:guild:2"}))
	assert.False(t, f.flags["door"])
	assert.Equal(t, []string{"guild"}, f.relations)
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []string{"Flag:a:1", "Flag:b:0", "Daemon:x|Rage:-4", "Relation:k:v"} {
		e, ok := Parse(s)
		require.True(t, ok)
		assert.Equal(t, s, e.String())
	}
}
