package data

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/daemonforge/solorpg/internal/effect"
	"github.com/daemonforge/solorpg/internal/world"
)

// object is a JSON object whose fields are pulled by exact, case-sensitive
// key. encoding/json matches struct fields case-insensitively, so records
// are never unmarshalled into tagged structs directly.
type object struct {
	file   string
	fields map[string]json.RawMessage
}

func decodeObject(file string, raw []byte) (object, error) {
	o := object{file: file}
	if err := json.Unmarshal(raw, &o.fields); err != nil {
		return o, fmt.Errorf("%w: %s: %v", ErrPackageContentInvalid, file, err)
	}
	if o.fields == nil {
		return o, fmt.Errorf("%w: %s: expected a JSON object", ErrPackageContentInvalid, file)
	}
	return o, nil
}

// required decodes key into dst; a missing key fails.
func (o object) required(key string, dst any) error {
	raw, ok := o.fields[key]
	if !ok {
		return fmt.Errorf("%w: %s: missing key %q", ErrPackageContentInvalid, o.file, key)
	}
	return o.decode(key, raw, dst)
}

// optional decodes key into dst when present and non-null; dst keeps its
// zero value otherwise. Only list and map fields are optional.
func (o object) optional(key string, dst any) error {
	raw, ok := o.fields[key]
	if !ok || isNull(raw) {
		return nil
	}
	return o.decode(key, raw, dst)
}

// nested returns a sub-object for key; a missing key fails.
func (o object) nested(key string) (object, error) {
	raw, ok := o.fields[key]
	if !ok {
		return object{}, fmt.Errorf("%w: %s: missing key %q", ErrPackageContentInvalid, o.file, key)
	}
	return decodeObject(o.file+"#"+key, raw)
}

// enum returns the text of an enum field that may be written either as a
// name or as an ordinal.
func (o object) enum(key string) (string, error) {
	raw, ok := o.fields[key]
	if !ok {
		return "", fmt.Errorf("%w: %s: missing key %q", ErrPackageContentInvalid, o.file, key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return "", fmt.Errorf("%w: %s: key %q: expected name or ordinal", ErrPackageContentInvalid, o.file, key)
	}
	return n.String(), nil
}

func (o object) decode(key string, raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %s: key %q: %v", ErrPackageContentInvalid, o.file, key, err)
	}
	return nil
}

func (o object) invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrPackageContentInvalid, o.file, fmt.Sprintf(format, args...))
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func decodeDefinition(file string, raw []byte) (world.Definition, error) {
	var def world.Definition
	o, err := decodeObject(file, raw)
	if err != nil {
		return def, err
	}
	var created string
	for _, f := range []struct {
		key string
		dst any
	}{
		{"Id", &def.ID},
		{"Name", &def.Name},
		{"Description", &def.Description},
		{"Version", &def.Version},
		{"Author", &def.Author},
		{"CreatedAt", &created},
		{"StartLocationId", &def.StartLocationID},
	} {
		if err := o.required(f.key, f.dst); err != nil {
			return def, err
		}
	}
	if def.CreatedAt, err = parseTime(created); err != nil {
		return def, o.invalid("CreatedAt: %v", err)
	}
	for _, f := range []struct {
		key string
		dst *[]string
	}{
		{"LocationIds", &def.LocationIDs},
		{"NpcIds", &def.NpcIDs},
		{"ItemIds", &def.ItemIDs},
		{"FactionIds", &def.FactionIDs},
		{"StoryNodeIds", &def.StoryNodeIDs},
	} {
		if err := o.optional(f.key, f.dst); err != nil {
			return def, err
		}
		if *f.dst == nil {
			*f.dst = []string{}
		}
	}
	return def, nil
}

func decodeLocation(file string, raw []byte) (*world.Location, error) {
	o, err := decodeObject(file, raw)
	if err != nil {
		return nil, err
	}
	loc := &world.Location{}
	if err := o.required("Id", &loc.ID); err != nil {
		return nil, err
	}
	if err := o.required("Title", &loc.Name); err != nil {
		return nil, err
	}
	if err := o.required("BaseDescription", &loc.Description); err != nil {
		return nil, err
	}
	if err := o.optional("Exits", &loc.Connections); err != nil {
		return nil, err
	}
	if err := o.optional("Npcs", &loc.NpcIDs); err != nil {
		return nil, err
	}
	if err := o.optional("Items", &loc.ItemIDs); err != nil {
		return nil, err
	}
	if loc.Connections == nil {
		loc.Connections = map[string]string{}
	}
	if loc.ItemIDs == nil {
		loc.ItemIDs = []string{}
	}
	loc.NpcIDs = dedupe(loc.NpcIDs)
	return loc, nil
}

func decodeFaction(file string, raw []byte) (*world.Faction, error) {
	o, err := decodeObject(file, raw)
	if err != nil {
		return nil, err
	}
	f := &world.Faction{}
	for _, fld := range []struct {
		key string
		dst *string
	}{
		{"Id", &f.ID},
		{"Name", &f.Name},
		{"Description", &f.Description},
		{"Ideology", &f.Ideology},
	} {
		if err := o.required(fld.key, fld.dst); err != nil {
			return nil, err
		}
	}
	if err := o.optional("Relations", &f.Relations); err != nil {
		return nil, err
	}
	if f.Relations == nil {
		f.Relations = map[string]int{}
	}
	return f, nil
}

func decodeNPC(file string, raw []byte) (*world.NPC, error) {
	o, err := decodeObject(file, raw)
	if err != nil {
		return nil, err
	}
	n := &world.NPC{}
	for _, fld := range []struct {
		key string
		dst *string
	}{
		{"Id", &n.ID},
		{"Name", &n.Name},
		{"Description", &n.Description},
		{"FactionId", &n.FactionID},
	} {
		if err := o.required(fld.key, fld.dst); err != nil {
			return nil, err
		}
	}

	h, err := o.enum("Hostility")
	if err != nil {
		return nil, err
	}
	if n.Hostility, err = world.ParseHostility(h); err != nil {
		return nil, o.invalid("%v", err)
	}
	b, err := o.enum("Behavior")
	if err != nil {
		return nil, err
	}
	if n.Behavior, err = world.ParseBehavior(b); err != nil {
		return nil, o.invalid("%v", err)
	}

	attrs, err := o.nested("Attributes")
	if err != nil {
		return nil, err
	}
	for _, a := range world.Abilities {
		if err := attrs.required(a.String(), &n.Attributes[a]); err != nil {
			return nil, err
		}
	}

	if err := o.optional("Inventory", &n.Inventory); err != nil {
		return nil, err
	}
	if n.Inventory == nil {
		n.Inventory = []string{}
	}
	return n, nil
}

func decodeItem(file string, raw []byte) (*world.Item, error) {
	o, err := decodeObject(file, raw)
	if err != nil {
		return nil, err
	}
	it := &world.Item{}
	if err := o.required("Id", &it.ID); err != nil {
		return nil, err
	}
	if err := o.required("Name", &it.Name); err != nil {
		return nil, err
	}
	if err := o.required("Description", &it.Description); err != nil {
		return nil, err
	}
	return it, nil
}

// decodeEvent returns the event and its raw effect strings so the caller
// can report unknown effect types.
func decodeEvent(file string, raw []byte) (*world.Event, []string, error) {
	o, err := decodeObject(file, raw)
	if err != nil {
		return nil, nil, err
	}
	ev := &world.Event{}
	if err := o.required("Id", &ev.ID); err != nil {
		return nil, nil, err
	}
	if err := o.required("Name", &ev.Name); err != nil {
		return nil, nil, err
	}
	if err := o.required("Description", &ev.Description); err != nil {
		return nil, nil, err
	}
	var effects []string
	if err := o.optional("Effects", &effects); err != nil {
		return nil, nil, err
	}
	ev.Effects = effect.ParseAll(effects)
	return ev, effects, nil
}

func dedupe(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
