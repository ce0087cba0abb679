package persist

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daemonforge/solorpg/internal/game"
)

type fakeWriter struct {
	batches [][]game.Entry
	err     error
}

func (w *fakeWriter) WriteEntries(_ context.Context, entries []game.Entry) error {
	if w.err != nil {
		return w.err
	}
	w.batches = append(w.batches, append([]game.Entry(nil), entries...))
	return nil
}

func entry(turn int) game.Entry {
	return game.Entry{SessionID: uuid.Nil, Turn: turn, Action: "move", Actor: game.PlayerID, Success: true}
}

func TestJournalFlushesFullBatches(t *testing.T) {
	w := &fakeWriter{}
	j := NewJournal(w, 3, nil)

	for turn := 1; turn <= 7; turn++ {
		j.Record(entry(turn))
	}
	require.Len(t, w.batches, 2)
	assert.Len(t, w.batches[0], 3)
	assert.Equal(t, 4, w.batches[1][0].Turn)
	assert.Equal(t, 1, j.Pending())

	require.NoError(t, j.Flush(context.Background()))
	require.Len(t, w.batches, 3)
	assert.Equal(t, 7, w.batches[2][0].Turn)
	assert.Equal(t, 0, j.Pending())

	require.NoError(t, j.Flush(context.Background()))
	assert.Len(t, w.batches, 3)
}

func TestJournalKeepsEntriesOnWriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("db down")}
	j := NewJournal(w, 2, nil)

	j.Record(entry(1))
	j.Record(entry(2))
	assert.Equal(t, 2, j.Pending())
	require.Error(t, j.Flush(context.Background()))

	w.err = nil
	j.Record(entry(3))
	require.Len(t, w.batches, 1)
	assert.Len(t, w.batches[0], 3)
	assert.Equal(t, 0, j.Pending())
}

func TestJournalBatchFloor(t *testing.T) {
	w := &fakeWriter{}
	j := NewJournal(w, 0, nil)
	j.Record(entry(1))
	assert.Len(t, w.batches, 1)
}

func TestJournalIsARecorder(t *testing.T) {
	var _ game.Recorder = (*Journal)(nil)
}

func TestMigrationsEmbedded(t *testing.T) {
	fsys, err := journalMigrations()
	require.NoError(t, err)
	files, err := fs.Glob(fsys, "*.sql")
	require.NoError(t, err)
	require.Equal(t, []string{"00001_journal.sql"}, files)

	raw, err := fs.ReadFile(fsys, files[0])
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), "-- +goose Up"))
	assert.True(t, strings.Contains(string(raw), "journal_entries"))
}
