package scripting

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/daemonforge/solorpg/internal/rules"
)

//go:embed damage.lua
var defaultScript string

// Engine wraps a single gopher-lua VM holding the damage formula.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine with the built-in damage table loaded.
// If path is set it names a .lua file, or a directory of them, loaded on top
// of the defaults; a script redefining calc_damage replaces the table.
func NewEngine(path string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	if err := vm.DoString(defaultScript); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load default damage script: %w", err)
	}
	if path == "" {
		return e, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		vm.Close()
		return nil, fmt.Errorf("damage script: %w", err)
	}
	if info.IsDir() {
		err = e.loadDir(path)
	} else {
		err = e.loadFile(path)
	}
	if err != nil {
		vm.Close()
		return nil, err
	}
	return e, nil
}

// loadDir loads all .lua files in a directory, in name order.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		if err := e.loadFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) loadFile(path string) error {
	if err := e.vm.DoFile(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	e.log.Debug("loaded lua script", zap.String("file", path))
	return nil
}

// Damage calls the Lua calc_damage function. Any script failure falls back
// to the standard table so a broken script never stalls combat.
func (e *Engine) Damage(t rules.DamageType, d []int) int {
	fallback := rules.StandardDamage{}.Damage(t, d)

	fn := e.vm.GetGlobal("calc_damage")
	if fn == lua.LNil {
		e.log.Error("lua function calc_damage not found")
		return fallback
	}

	ctx := e.vm.NewTable()
	ctx.RawSetString("type", lua.LString(t.String()))
	dt := e.vm.NewTable()
	for _, v := range d {
		dt.Append(lua.LNumber(v))
	}
	ctx.RawSetString("dice", dt)

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, ctx); err != nil {
		e.log.Error("lua calc_damage error", zap.Error(err), zap.Stringer("type", t))
		return fallback
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua calc_damage returned non-number", zap.String("got", result.Type().String()))
		return fallback
	}
	return int(n)
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
