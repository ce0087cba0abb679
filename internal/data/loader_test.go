package data

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daemonforge/solorpg/internal/effect"
	"github.com/daemonforge/solorpg/internal/rules"
	"github.com/daemonforge/solorpg/internal/world"
)

const minimalWorld = `{
	"Id": "w1",
	"Name": "Hollow Vale",
	"Description": "A quiet valley.",
	"Version": "1.0.0",
	"Author": "tester",
	"CreatedAt": "2024-05-01T10:00:00Z",
	"StartLocationId": "hall",
	"LocationIds": ["hall"],
	"FactionIds": ["wardens"]
}`

const hallRoom = `{
	"Id": "hall",
	"Title": "Great Hall",
	"BaseDescription": "Dusty banners hang from the rafters.",
	"Exits": {},
	"Npcs": [],
	"Items": []
}`

const wardensFaction = `{
	"Id": "wardens",
	"Name": "Wardens",
	"Description": "Keepers of the vale.",
	"Ideology": "Order above all.",
	"Relations": {"smugglers": -3}
}`

// buildZip writes entries in the given order; later duplicates are kept.
func buildZip(t *testing.T, entries ...[2]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e[0])
		require.NoError(t, err)
		_, err = w.Write([]byte(e[1]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func minimalEntries() [][2]string {
	return [][2]string{
		{"world.json", minimalWorld},
		{"rooms/hall.json", hallRoom},
		{"factions/wardens.json", wardensFaction},
	}
}

func load(t *testing.T, entries ...[2]string) (*world.Package, error) {
	t.Helper()
	return NewLoader(Options{}, nil).LoadBytes(buildZip(t, entries...))
}

func TestLoadMinimalPackage(t *testing.T) {
	pkg, err := load(t, minimalEntries()...)
	require.NoError(t, err)

	assert.Equal(t, "w1", pkg.Definition.ID)
	assert.Equal(t, "hall", pkg.Definition.StartLocationID)
	assert.Equal(t, 2024, pkg.Definition.CreatedAt.Year())
	assert.Equal(t, []string{}, pkg.Definition.NpcIDs)
	require.NotNil(t, pkg.StartLocation())
	assert.Equal(t, "Great Hall", pkg.StartLocation().Name)
	assert.Equal(t, -3, pkg.Factions["wardens"].Relations["smugglers"])
	assert.Empty(t, pkg.NPCs)
	assert.Empty(t, pkg.StoryNodes)
	assert.Empty(t, pkg.Events)
	assert.Len(t, pkg.Digest, 64)
}

func TestLoadRejectsOversizeWithoutReading(t *testing.T) {
	r := &countingReaderAt{}
	_, err := NewLoader(Options{}, nil).Load(r, DefaultMaxSize+1)
	require.ErrorIs(t, err, ErrPackageTooLarge)
	assert.Zero(t, r.reads)
}

func TestLoadReaderRejectsOversizeStream(t *testing.T) {
	l := NewLoader(Options{MaxSize: 64}, nil)
	_, err := l.LoadReader(bytes.NewReader(make([]byte, 65)))
	require.ErrorIs(t, err, ErrPackageTooLarge)
}

type countingReaderAt struct{ reads int }

func (c *countingReaderAt) ReadAt(p []byte, off int64) (int, error) {
	c.reads++
	return 0, errors.New("should not be read")
}

func TestLoadStructureErrors(t *testing.T) {
	tcs := []struct {
		name    string
		entries [][2]string
		msg     string
	}{
		{
			name:    "missing world",
			entries: [][2]string{{"rooms/hall.json", hallRoom}, {"factions/w.json", wardensFaction}},
			msg:     "world.json required",
		},
		{
			name:    "no rooms",
			entries: [][2]string{{"world.json", minimalWorld}, {"factions/w.json", wardensFaction}},
			msg:     "room required",
		},
		{
			name:    "room with wrong extension",
			entries: [][2]string{{"world.json", minimalWorld}, {"rooms/hall.yaml", hallRoom}, {"factions/w.json", wardensFaction}},
			msg:     "room required",
		},
		{
			name:    "no factions",
			entries: [][2]string{{"world.json", minimalWorld}, {"rooms/hall.json", hallRoom}},
			msg:     "faction required",
		},
		{
			name: "two world files",
			entries: append(minimalEntries(),
				[2]string{"/world.json", minimalWorld}),
			msg: "more than one entry",
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			pkg, err := load(t, tc.entries...)
			require.ErrorIs(t, err, ErrPackageStructureInvalid)
			assert.Contains(t, err.Error(), tc.msg)
			assert.Nil(t, pkg)
		})
	}
}

func TestLoadNotAZip(t *testing.T) {
	_, err := NewLoader(Options{}, nil).LoadBytes([]byte("definitely not a zip"))
	require.ErrorIs(t, err, ErrPackageStructureInvalid)
}

func TestSanitizePath(t *testing.T) {
	tcs := map[string]string{
		"../../etc/passwd":      "etc/passwd",
		`..\..\world.json`:      "world.json",
		"/rooms/hall.json":      "rooms/hall.json",
		"rooms/../../hall.json": "rooms///hall.json",
		"story/a..b.yaml":       "story/ab.yaml",
		"world.json":            "world.json",
	}
	for in, want := range tcs {
		assert.Equal(t, want, SanitizePath(in), in)
	}
}

func TestTraversalEntryStaysInNamespace(t *testing.T) {
	entries := append(minimalEntries(), [2]string{"../../etc/passwd", "root:x:0:0"})
	pkg, err := load(t, entries...)
	require.NoError(t, err)
	assert.NotNil(t, pkg)

	raw := buildZip(t, entries...)
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)
	a, err := indexArchive(zr, DefaultMaxSize)
	require.NoError(t, err)
	assert.True(t, a.has("etc/passwd"))
	for k := range a.entries {
		assert.NotContains(t, k, "..")
		assert.False(t, strings.HasPrefix(k, "/"), k)
	}
}

func TestTraversalCanSupplyWorldFile(t *testing.T) {
	pkg, err := load(t,
		[2]string{"../world.json", minimalWorld},
		[2]string{`rooms\hall.json`, hallRoom},
		[2]string{"factions/wardens.json", wardensFaction},
	)
	require.NoError(t, err)
	assert.Equal(t, "w1", pkg.Definition.ID)
}

func TestLoadContentErrors(t *testing.T) {
	tcs := []struct {
		name  string
		entry [2]string
		msg   string
	}{
		{"malformed world", [2]string{"world.json", `{"Id": `}, "world.json"},
		{"world key wrong case", [2]string{"world.json", `{"id":"w1","Name":"","Description":"","Version":"","Author":"","CreatedAt":"2024-01-01","StartLocationId":"hall"}`}, `missing key "Id"`},
		{"bad timestamp", [2]string{"world.json", `{"Id":"w1","Name":"","Description":"","Version":"","Author":"","CreatedAt":"yesterday","StartLocationId":"hall"}`}, "CreatedAt"},
		{"room missing title", [2]string{"rooms/hall.json", `{"Id":"hall","BaseDescription":""}`}, `missing key "Title"`},
		{"faction missing ideology", [2]string{"factions/wardens.json", `{"Id":"wardens","Name":"","Description":""}`}, `missing key "Ideology"`},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			entries := replaceEntry(minimalEntries(), tc.entry)
			_, err := load(t, entries...)
			require.ErrorIs(t, err, ErrPackageContentInvalid)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func replaceEntry(entries [][2]string, e [2]string) [][2]string {
	for i := range entries {
		if entries[i][0] == e[0] {
			entries[i] = e
			return entries
		}
	}
	return append(entries, e)
}

const guardNPC = `{
	"Id": "guard",
	"Name": "Old Guard",
	"Description": "Leans on a spear.",
	"FactionId": "wardens",
	"Hostility": "Neutral",
	"Attributes": {"Strength": 14, "Dexterity": 10, "Intelligence": 9, "Constitution": 12, "Wisdom": 11, "Charisma": 8},
	"Behavior": 1,
	"Inventory": ["spear"]
}`

func TestLoadNPCs(t *testing.T) {
	pkg, err := load(t, append(minimalEntries(), [2]string{"npcs/guard.json", guardNPC})...)
	require.NoError(t, err)
	g := pkg.NPCs["guard"]
	require.NotNil(t, g)
	assert.Equal(t, world.Neutral, g.Hostility)
	assert.Equal(t, world.Patrol, g.Behavior)
	assert.Equal(t, 14, g.Attributes.Get(world.Strength))
	assert.Equal(t, []string{"spear"}, g.Inventory)
}

func TestLoadNPCRejectsBadEnums(t *testing.T) {
	tcs := map[string]string{
		"hostility name":    `"Hostility": "Furious"`,
		"hostility ordinal": `"Hostility": 7`,
		"hostility bool":    `"Hostility": true`,
	}
	for name, field := range tcs {
		t.Run(name, func(t *testing.T) {
			npc := `{"Id":"x","Name":"","Description":"","FactionId":"",` + field + `,
				"Attributes":{"Strength":1,"Dexterity":1,"Intelligence":1,"Constitution":1,"Wisdom":1,"Charisma":1},
				"Behavior":"Static"}`
			_, err := load(t, append(minimalEntries(), [2]string{"npcs/x.json", npc})...)
			require.ErrorIs(t, err, ErrPackageContentInvalid)
			assert.Contains(t, err.Error(), "npcs/x.json")
		})
	}
}

func TestLoadNPCRequiresEveryAbility(t *testing.T) {
	npc := `{"Id":"x","Name":"","Description":"","FactionId":"","Hostility":"Passive",
		"Attributes":{"Strength":1,"Dexterity":1,"Intelligence":1,"Constitution":1,"Wisdom":1},
		"Behavior":"Static"}`
	_, err := load(t, append(minimalEntries(), [2]string{"npcs/x.json", npc})...)
	require.ErrorIs(t, err, ErrPackageContentInvalid)
	assert.Contains(t, err.Error(), "Charisma")
}

const gateStory = `
id: gate
title: The Gate
text: A guard bars the way.
owner_npc_id: guard
choices:
  - label: Talk your way through
    next: yard
    effects:
      - "Flag:PassedGate:1"
      - "Daemon:guard|Loyalty:-1"
      - "Summon:wolf:3"
    skill_check:
      attribute: Presence
      skill: Social
      target_number: 9
      opponent_npc_id: guard
  - label: Turn back
    next: END
`

func TestLoadStory(t *testing.T) {
	pkg, err := load(t, append(minimalEntries(),
		[2]string{"npcs/guard.json", guardNPC},
		[2]string{"story/gate.yaml", gateStory})...)
	require.NoError(t, err)

	node := pkg.StoryNodes["gate"]
	require.NotNil(t, node)
	require.Len(t, node.Choices, 2)
	c := node.Choices[0]
	assert.Equal(t, "Talk your way through", c.Label)
	require.Len(t, c.Effects, 3)
	assert.Equal(t, effect.SetFlag{Name: "PassedGate", Value: true}, c.Effects[0])
	assert.Equal(t, effect.AdjustDaemonDrive{Actor: "guard", Drive: "Loyalty", Delta: -1}, c.Effects[1])
	assert.IsType(t, effect.Unknown{}, c.Effects[2])
	require.NotNil(t, c.SkillCheck)
	assert.Equal(t, rules.Presence, c.SkillCheck.Attribute)
	assert.Equal(t, rules.Social, c.SkillCheck.Skill)
	assert.Equal(t, 9, c.SkillCheck.TargetNumber)
	assert.Equal(t, "guard", c.SkillCheck.OpponentNpcID)
	assert.True(t, node.Choices[1].Terminal())
}

func TestLoadStoryFailuresAreFatal(t *testing.T) {
	tcs := map[string]string{
		"malformed yaml": "id: [unclosed",
		"missing id":     "title: nothing here",
		"bad skill":      "id: s\nchoices:\n  - label: x\n    skill_check:\n      attribute: Body\n      skill: Juggling\n",
	}
	for name, doc := range tcs {
		t.Run(name, func(t *testing.T) {
			pkg, err := load(t, append(minimalEntries(),
				[2]string{"story/ok.yaml", "id: ok\n"},
				[2]string{"story/broken.yaml", doc})...)
			require.ErrorIs(t, err, ErrPackageContentInvalid)
			assert.Contains(t, err.Error(), "story/broken.yaml")
			assert.Nil(t, pkg)
		})
	}
}

func TestLoadEventsAndItems(t *testing.T) {
	pkg, err := load(t, append(minimalEntries(),
		[2]string{"items/key.json", `{"Id":"key","Name":"Iron Key","Description":"Cold."}`},
		[2]string{"events/storm.json", `{"Id":"storm","Name":"Storm","Description":"Thunder.","Effects":["Flag:Storm:1"]}`},
	)...)
	require.NoError(t, err)
	assert.Equal(t, "Iron Key", pkg.Items["key"].Name)
	assert.Equal(t, []effect.Effect{effect.SetFlag{Name: "Storm", Value: true}}, pkg.Events["storm"].Effects)
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	_, err := load(t, append(minimalEntries(), [2]string{"rooms/hall2.json", hallRoom})...)
	require.ErrorIs(t, err, ErrPackageContentInvalid)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestLoadRejectsMissingStartLocation(t *testing.T) {
	room := `{"Id":"cellar","Title":"Cellar","BaseDescription":""}`
	_, err := load(t, replaceEntry(minimalEntries(), [2]string{"rooms/hall.json", room})...)
	require.ErrorIs(t, err, ErrInvariantViolation)
	assert.Contains(t, err.Error(), `"hall"`)
}

func TestReferencesTolerantByDefault(t *testing.T) {
	room := `{"Id":"hall","Title":"Hall","BaseDescription":"","Exits":{"north":"nowhere"},"Npcs":["ghost"]}`
	entries := replaceEntry(minimalEntries(), [2]string{"rooms/hall.json", room})

	pkg, err := load(t, entries...)
	require.NoError(t, err)
	issues := CheckReferences(pkg)
	require.Len(t, issues, 2)
	assert.Equal(t, ReferenceIssue{Source: "location:hall", Field: "exit north", Target: "nowhere"}, issues[0])
	assert.Equal(t, ReferenceIssue{Source: "location:hall", Field: "npc", Target: "ghost"}, issues[1])

	_, err = NewLoader(Options{StrictReferences: true}, nil).LoadBytes(buildZip(t, entries...))
	require.ErrorIs(t, err, ErrInvariantViolation)
}

func TestStoryReferences(t *testing.T) {
	pkg, err := load(t, append(minimalEntries(),
		[2]string{"npcs/guard.json", guardNPC},
		[2]string{"story/gate.yaml", gateStory})...)
	require.NoError(t, err)

	var fields []string
	for _, is := range CheckReferences(pkg) {
		fields = append(fields, is.Source+" "+is.Field)
	}
	assert.ElementsMatch(t, []string{
		"npc:guard inventory",
		"story:gate choice 0 next",
	}, fields)
}

func TestEntryTooLargeAfterDecompression(t *testing.T) {
	big := bytes.Repeat([]byte(" "), 4096)
	entries := append(minimalEntries(), [2]string{"story/big.yaml", "id: big\n" + string(big)})
	data := buildZip(t, entries...)

	_, err := NewLoader(Options{MaxEntrySize: 1024}, nil).LoadBytes(data)
	require.ErrorIs(t, err, ErrPackageTooLarge)
}
