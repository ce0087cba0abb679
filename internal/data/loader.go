// Package data loads world packages from zip archives and validates them
// into an immutable world.Package.
package data

import (
	"archive/zip"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/daemonforge/solorpg/internal/effect"
	"github.com/daemonforge/solorpg/internal/world"
)

// DefaultMaxSize is the archive size cap: 20 MiB.
const DefaultMaxSize int64 = 20 << 20

// Fixed archive layout.
const (
	worldFile  = "world.json"
	roomsDir   = "rooms"
	factionDir = "factions"
	npcDir     = "npcs"
	itemDir    = "items"
	eventDir   = "events"
	storyDir   = "story"
)

// Options bound and tune a load.
type Options struct {
	// MaxSize caps the compressed archive. Zero means DefaultMaxSize.
	MaxSize int64
	// MaxEntrySize caps each decompressed entry. Zero means MaxSize.
	MaxEntrySize int64
	// StrictReferences turns dangling references into ErrInvariantViolation
	// instead of logged warnings.
	StrictReferences bool
}

// Loader decodes archives. It holds no per-load state and may be shared
// between goroutines.
type Loader struct {
	opts Options
	log  *zap.Logger
}

// NewLoader returns a loader. A nil logger discards output.
func NewLoader(opts Options, log *zap.Logger) *Loader {
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.MaxEntrySize <= 0 {
		opts.MaxEntrySize = opts.MaxSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{opts: opts, log: log}
}

// LoadFile opens and loads an archive from disk.
func (l *Loader) LoadFile(path string) (*world.Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open package %s: %w", path, err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat package %s: %w", path, err)
	}
	return l.Load(f, st.Size())
}

// LoadReader buffers a stream of unknown length, reading at most one byte
// past the cap, and loads it.
func (l *Loader) LoadReader(r io.Reader) (*world.Package, error) {
	b, err := io.ReadAll(io.LimitReader(r, l.opts.MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read package: %w", err)
	}
	return l.LoadBytes(b)
}

// LoadBytes loads an in-memory archive.
func (l *Loader) LoadBytes(b []byte) (*world.Package, error) {
	return l.Load(bytes.NewReader(b), int64(len(b)))
}

// Load decodes the archive in r. It stops at the first failure and never
// returns a partial package.
func (l *Loader) Load(r io.ReaderAt, size int64) (*world.Package, error) {
	if size > l.opts.MaxSize {
		return nil, fmt.Errorf("%w: archive is %s, limit %s", ErrPackageTooLarge,
			humanize.IBytes(uint64(size)), humanize.IBytes(uint64(l.opts.MaxSize)))
	}

	// Insecure names are expected here; SanitizePath neutralises them.
	zr, err := zip.NewReader(r, size)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("%w: not a zip archive: %v", ErrPackageStructureInvalid, err)
	}
	a, err := indexArchive(zr, l.opts.MaxEntrySize)
	if err != nil {
		return nil, err
	}

	rooms := a.section(roomsDir, ".json")
	factions := a.section(factionDir, ".json")
	switch {
	case !a.has(worldFile):
		return nil, fmt.Errorf("%w: %s required at archive root", ErrPackageStructureInvalid, worldFile)
	case len(rooms) == 0:
		return nil, fmt.Errorf("%w: at least one room required (%s/*.json)", ErrPackageStructureInvalid, roomsDir)
	case len(factions) == 0:
		return nil, fmt.Errorf("%w: at least one faction required (%s/*.json)", ErrPackageStructureInvalid, factionDir)
	}

	raw, err := a.read(worldFile)
	if err != nil {
		return nil, err
	}
	def, err := decodeDefinition(worldFile, raw)
	if err != nil {
		return nil, err
	}

	pkg := &world.Package{
		Definition: def,
		Locations:  make(map[string]*world.Location, len(rooms)),
		NPCs:       make(map[string]*world.NPC),
		Factions:   make(map[string]*world.Faction, len(factions)),
		Items:      make(map[string]*world.Item),
		StoryNodes: make(map[string]*world.StoryNode),
		Events:     make(map[string]*world.Event),
	}

	if err := loadSection(a, rooms, decodeLocation, pkg.Locations, func(v *world.Location) string { return v.ID }); err != nil {
		return nil, err
	}
	if err := loadSection(a, factions, decodeFaction, pkg.Factions, func(v *world.Faction) string { return v.ID }); err != nil {
		return nil, err
	}
	if err := loadSection(a, a.section(npcDir, ".json"), decodeNPC, pkg.NPCs, func(v *world.NPC) string { return v.ID }); err != nil {
		return nil, err
	}
	if err := loadSection(a, a.section(itemDir, ".json"), decodeItem, pkg.Items, func(v *world.Item) string { return v.ID }); err != nil {
		return nil, err
	}

	for _, key := range a.section(eventDir, ".json") {
		raw, err := a.read(key)
		if err != nil {
			return nil, err
		}
		ev, effects, err := decodeEvent(key, raw)
		if err != nil {
			return nil, err
		}
		if _, dup := pkg.Events[ev.ID]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate event id %q", ErrPackageContentInvalid, key, ev.ID)
		}
		pkg.Events[ev.ID] = ev
		l.warnUnknownEffects(key, effects)
	}

	for _, key := range a.section(storyDir, ".yaml") {
		raw, err := a.read(key)
		if err != nil {
			return nil, err
		}
		node, effects, err := decodeStoryNode(key, raw)
		if err != nil {
			return nil, err
		}
		if _, dup := pkg.StoryNodes[node.ID]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate story node id %q", ErrPackageContentInvalid, key, node.ID)
		}
		pkg.StoryNodes[node.ID] = node
		l.warnUnknownEffects(key, effects)
	}

	if pkg.StartLocation() == nil {
		return nil, fmt.Errorf("%w: start location %q is not among the %d locations",
			ErrInvariantViolation, def.StartLocationID, len(pkg.Locations))
	}

	if issues := CheckReferences(pkg); len(issues) > 0 {
		if l.opts.StrictReferences {
			return nil, fmt.Errorf("%w: %d unresolved references, first: %s", ErrInvariantViolation, len(issues), issues[0])
		}
		for _, is := range issues {
			l.log.Warn("unresolved reference",
				zap.String("package", def.ID),
				zap.String("source", is.Source),
				zap.String("field", is.Field),
				zap.String("target", is.Target))
		}
	}

	digest, err := digestOf(r, size)
	if err != nil {
		return nil, err
	}
	pkg.Digest = digest

	l.log.Info("world package loaded",
		zap.String("id", def.ID),
		zap.String("version", def.Version),
		zap.Int("locations", len(pkg.Locations)),
		zap.Int("npcs", len(pkg.NPCs)),
		zap.Int("factions", len(pkg.Factions)),
		zap.Int("items", len(pkg.Items)),
		zap.Int("story_nodes", len(pkg.StoryNodes)),
		zap.Int("events", len(pkg.Events)))
	return pkg, nil
}

// loadSection decodes every key of one archive section into dst, rejecting
// duplicate ids.
func loadSection[T any](a *archive, keys []string, decode func(string, []byte) (*T, error), dst map[string]*T, id func(*T) string) error {
	for _, key := range keys {
		raw, err := a.read(key)
		if err != nil {
			return err
		}
		v, err := decode(key, raw)
		if err != nil {
			return err
		}
		k := id(v)
		if _, dup := dst[k]; dup {
			return fmt.Errorf("%w: %s: duplicate id %q", ErrPackageContentInvalid, key, k)
		}
		dst[k] = v
	}
	return nil
}

// warnUnknownEffects logs effect strings that decode to nothing applicable.
// They stay in the package as no-ops.
func (l *Loader) warnUnknownEffects(file string, raw []string) {
	for _, s := range raw {
		e, ok := effect.Parse(s)
		if !ok {
			l.log.Warn("effect ignored", zap.String("file", file), zap.String("effect", s))
			continue
		}
		if _, unknown := e.(effect.Unknown); unknown {
			l.log.Warn("unknown effect type", zap.String("file", file), zap.String("effect", s))
		}
	}
}

func digestOf(r io.ReaderAt, size int64) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("init digest: %w", err)
	}
	if _, err := io.Copy(h, io.NewSectionReader(r, 0, size)); err != nil {
		return "", fmt.Errorf("digest package: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
