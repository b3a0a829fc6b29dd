// Package scripting hosts the Lua VM that backs chat commands. Commands
// live in scripts/commands/*.lua and register themselves through the
// `register_command` global; the chat handler calls Dispatch from the
// game loop.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// CommandContext is the Go-side state a command may touch. Commands run
// in the serial apply phase, so direct mutation through these callbacks
// is safe.
type CommandContext struct {
	CallerAlias string
	CallerAdmin bool

	// Reply sends a line back to the caller.
	Reply func(msg string)
	// Broadcast sends a line to every connected player.
	Broadcast func(msg string)
	// GiveItem pushes an item into the caller's inventory by id.
	GiveItem func(itemID string, amount int) bool
	// Teleport moves the caller.
	Teleport func(x, y, z float64) bool
	// SetTimeOfDay adjusts world time in seconds.
	SetTimeOfDay func(secs float64)
}

// Engine wraps a single gopher-lua VM. Single-goroutine access only
// (game loop); no locking.
type Engine struct {
	vm       *lua.LState
	commands map[string]*lua.LFunction
	admin    map[string]bool
	log      *zap.Logger
}

// NewEngine creates the VM and loads every .lua file under scriptsDir.
// Scripts call register_command(name, admin_only, fn) at load time.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{
		vm:       vm,
		commands: make(map[string]*lua.LFunction),
		admin:    make(map[string]bool),
		log:      log,
	}

	vm.SetGlobal("register_command", vm.NewFunction(func(L *lua.LState) int {
		name := strings.ToLower(L.CheckString(1))
		adminOnly := L.CheckBool(2)
		fn := L.CheckFunction(3)
		e.commands[name] = fn
		e.admin[name] = adminOnly
		return 0
	}))

	if err := e.loadDir(filepath.Join(scriptsDir, "commands")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load command scripts: %w", err)
	}
	return e, nil
}

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Has reports whether a command is registered.
func (e *Engine) Has(name string) bool {
	_, ok := e.commands[strings.ToLower(name)]
	return ok
}

// Dispatch runs a registered command. Unknown commands and admin commands
// invoked by non-admins report back through ctx.Reply.
func (e *Engine) Dispatch(name string, args []string, ctx *CommandContext) {
	name = strings.ToLower(name)
	fn, ok := e.commands[name]
	if !ok {
		ctx.Reply(fmt.Sprintf("unknown command: %s", name))
		return
	}
	if e.admin[name] && !ctx.CallerAdmin {
		ctx.Reply("insufficient privileges")
		return
	}

	argTable := e.vm.NewTable()
	for _, a := range args {
		argTable.Append(lua.LString(a))
	}

	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true},
		e.bindContext(ctx), argTable); err != nil {
		e.log.Warn("command script failed",
			zap.String("command", name), zap.Error(err))
		ctx.Reply("command failed")
	}
}

// bindContext exposes the Go callbacks as a Lua table.
func (e *Engine) bindContext(ctx *CommandContext) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("caller", lua.LString(ctx.CallerAlias))
	t.RawSetString("is_admin", lua.LBool(ctx.CallerAdmin))
	t.RawSetString("reply", e.vm.NewFunction(func(L *lua.LState) int {
		ctx.Reply(L.CheckString(1))
		return 0
	}))
	t.RawSetString("broadcast", e.vm.NewFunction(func(L *lua.LState) int {
		ctx.Broadcast(L.CheckString(1))
		return 0
	}))
	t.RawSetString("give_item", e.vm.NewFunction(func(L *lua.LState) int {
		ok := ctx.GiveItem(L.CheckString(1), L.OptInt(2, 1))
		L.Push(lua.LBool(ok))
		return 1
	}))
	t.RawSetString("teleport", e.vm.NewFunction(func(L *lua.LState) int {
		ok := ctx.Teleport(
			float64(L.CheckNumber(1)),
			float64(L.CheckNumber(2)),
			float64(L.CheckNumber(3)),
		)
		L.Push(lua.LBool(ok))
		return 1
	}))
	t.RawSetString("set_time", e.vm.NewFunction(func(L *lua.LState) int {
		ctx.SetTimeOfDay(float64(L.CheckNumber(1)))
		return 0
	}))
	return t
}

func (e *Engine) Close() {
	e.vm.Close()
}
