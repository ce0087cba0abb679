package data

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegacyEntryNamesDecodeFromCP437(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "rooms/caf\x82.json", NonUTF8: true})
	require.NoError(t, err)
	_, err = w.Write([]byte(hallRoom))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	a, err := indexArchive(zr, DefaultMaxSize)
	require.NoError(t, err)

	assert.True(t, a.has("rooms/café.json"))
	assert.Equal(t, []string{"rooms/café.json"}, a.section("rooms", ".json"))
}

func TestSectionIsSortedAndFiltered(t *testing.T) {
	raw := buildZip(t,
		[2]string{"story/b.yaml", "id: b"},
		[2]string{"story/a.yaml", "id: a"},
		[2]string{"story/notes.txt", "x"},
		[2]string{"storyboard/c.yaml", "id: c"},
	)
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)
	a, err := indexArchive(zr, DefaultMaxSize)
	require.NoError(t, err)

	assert.Equal(t, []string{"story/a.yaml", "story/b.yaml"}, a.section("story", ".yaml"))
}

func TestReadMissingEntry(t *testing.T) {
	a := &archive{entries: map[string]*zip.File{}}
	_, err := a.read("world.json")
	require.ErrorIs(t, err, ErrPackageStructureInvalid)
}
