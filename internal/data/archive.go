package data

import (
	"archive/zip"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/encoding/charmap"
)

// SanitizePath turns an archive entry name into a lookup key that cannot
// escape the archive namespace: backslashes become slashes, every ".."
// is removed, then leading slashes are trimmed.
func SanitizePath(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = strings.ReplaceAll(name, "..", "")
	return strings.TrimLeft(name, "/")
}

// entryName returns the UTF-8 name of an entry. Legacy archivers write
// names in code page 437 without setting the UTF-8 flag.
func entryName(f *zip.File) string {
	if !f.NonUTF8 {
		return f.Name
	}
	decoded, err := charmap.CodePage437.NewDecoder().String(f.Name)
	if err != nil {
		return f.Name
	}
	return decoded
}

// archive is the sanitized entry index of one package.
type archive struct {
	entries  map[string]*zip.File
	maxEntry int64
}

func indexArchive(zr *zip.Reader, maxEntry int64) (*archive, error) {
	a := &archive{entries: make(map[string]*zip.File, len(zr.File)), maxEntry: maxEntry}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		key := SanitizePath(entryName(f))
		if key == "" || strings.HasSuffix(key, "/") {
			continue
		}
		if _, dup := a.entries[key]; dup {
			return nil, fmt.Errorf("%w: more than one entry resolves to %s", ErrPackageStructureInvalid, key)
		}
		a.entries[key] = f
	}
	return a, nil
}

// has reports whether a root-level entry exists.
func (a *archive) has(key string) bool {
	_, ok := a.entries[key]
	return ok
}

// section returns the sorted keys under dir/ ending in ext.
func (a *archive) section(dir, ext string) []string {
	prefix := dir + "/"
	var keys []string
	for k := range a.entries {
		if strings.HasPrefix(k, prefix) && strings.HasSuffix(k, ext) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// read returns the decompressed bytes of an entry, bounded by maxEntry.
func (a *archive) read(key string) ([]byte, error) {
	f, ok := a.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s missing", ErrPackageStructureInvalid, key)
	}
	if a.maxEntry > 0 && f.UncompressedSize64 > uint64(a.maxEntry) {
		return nil, fmt.Errorf("%w: %s is %s, limit %s", ErrPackageTooLarge, key,
			humanize.IBytes(f.UncompressedSize64), humanize.IBytes(uint64(a.maxEntry)))
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrPackageContentInvalid, key, err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if a.maxEntry > 0 {
		r = io.LimitReader(rc, a.maxEntry+1)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrPackageContentInvalid, key, err)
	}
	if a.maxEntry > 0 && int64(len(b)) > a.maxEntry {
		return nil, fmt.Errorf("%w: %s exceeds %s uncompressed", ErrPackageTooLarge, key,
			humanize.IBytes(uint64(a.maxEntry)))
	}
	return b, nil
}
