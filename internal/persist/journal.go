package persist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/daemonforge/solorpg/internal/game"
)

// SessionInfo ties a journal to the exact content and seed it was played with.
type SessionInfo struct {
	ID            uuid.UUID
	PackageID     string
	PackageDigest string
	PlayerName    string
	Seed          int64
}

type JournalRepo struct {
	db *DB
}

func NewJournalRepo(db *DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// RegisterSession inserts the session row every entry references.
func (r *JournalRepo) RegisterSession(ctx context.Context, s SessionInfo) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO sessions (id, package_id, package_digest, player_name, seed)
		 VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.PackageID, s.PackageDigest, s.PlayerName, s.Seed,
	)
	if err != nil {
		return fmt.Errorf("register session: %w", err)
	}
	return nil
}

// WriteEntries atomically writes a batch of entries in a single transaction.
func (r *JournalRepo) WriteEntries(ctx context.Context, entries []game.Entry) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO journal_entries (session_id, turn, action, actor, target, total, success, detail)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			e.SessionID, e.Turn, e.Action, e.Actor, e.Target, e.Total, e.Success, e.Detail,
		); err != nil {
			return fmt.Errorf("journal insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// EntryWriter persists a batch of entries, all or nothing.
type EntryWriter interface {
	WriteEntries(ctx context.Context, entries []game.Entry) error
}

// flushTimeout bounds a flush triggered from Record, which has no context.
const flushTimeout = 5 * time.Second

// Journal buffers entries from the game loop and writes them in batches.
// It implements game.Recorder. Entries of a failed write stay buffered and
// go out with the next flush.
type Journal struct {
	mu    sync.Mutex
	w     EntryWriter
	buf   []game.Entry
	batch int
	log   *zap.Logger
}

// NewJournal returns a journal flushing every batch entries (minimum 1).
func NewJournal(w EntryWriter, batch int, log *zap.Logger) *Journal {
	if batch < 1 {
		batch = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Journal{w: w, batch: batch, log: log, buf: make([]game.Entry, 0, batch)}
}

// Record buffers an entry, flushing when a full batch is pending.
func (j *Journal) Record(e game.Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.buf = append(j.buf, e)
	if len(j.buf) < j.batch {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := j.flushLocked(ctx); err != nil {
		j.log.Warn("journal flush failed, keeping entries", zap.Error(err), zap.Int("pending", len(j.buf)))
	}
}

// Flush writes every pending entry.
func (j *Journal) Flush(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.flushLocked(ctx)
}

// Pending reports how many entries await a write.
func (j *Journal) Pending() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.buf)
}

func (j *Journal) flushLocked(ctx context.Context) error {
	if len(j.buf) == 0 {
		return nil
	}
	if err := j.w.WriteEntries(ctx, j.buf); err != nil {
		return err
	}
	j.log.Debug("journal flushed", zap.Int("entries", len(j.buf)))
	j.buf = make([]game.Entry, 0, j.batch)
	return nil
}
