package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory. A missing directory yields an engine with no hooks.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)
	for _, sub := range []string{"core", "cost"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			e.vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

// NewEngineFromSource creates an engine from inline Lua source.
func NewEngineFromSource(src string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)
	if err := e.vm.DoString(src); err != nil {
		e.vm.Close()
		return nil, fmt.Errorf("load lua source: %w", err)
	}
	return e, nil
}

func newEngine(log *zap.Logger) *Engine {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	return &Engine{vm: vm, log: log}
}

// loadDir loads all .lua files in a directory.
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

// HasFunc reports whether a global Lua function is defined.
func (e *Engine) HasFunc(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// GradeBonusContext is passed to calc_grade_bonus.
type GradeBonusContext struct {
	Kind     string
	Category string
	Grade    string
	Base     map[string]int // item id → amount
	Bonus    map[string]int // catalog bonus for this grade
}

// CalcGradeBonus calls the Lua calc_grade_bonus function. ok is false when
// the hook is missing, fails, or returns nil, meaning the catalog value stands.
func (e *Engine) CalcGradeBonus(ctx GradeBonusContext) (bonus map[string]int, ok bool) {
	fn := e.vm.GetGlobal("calc_grade_bonus")
	if fn == lua.LNil {
		return nil, false
	}

	t := e.vm.NewTable()
	t.RawSetString("kind", lua.LString(ctx.Kind))
	t.RawSetString("category", lua.LString(ctx.Category))
	t.RawSetString("grade", lua.LString(ctx.Grade))
	t.RawSetString("base", e.amountTable(ctx.Base))
	t.RawSetString("bonus", e.amountTable(ctx.Bonus))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_grade_bonus error", zap.String("kind", ctx.Kind), zap.Error(err))
		return nil, false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, isTable := result.(*lua.LTable)
	if !isTable {
		if result != lua.LNil {
			e.log.Error("lua calc_grade_bonus returned non-table", zap.String("kind", ctx.Kind))
		}
		return nil, false
	}
	bonus = make(map[string]int)
	rt.ForEach(func(k, v lua.LValue) {
		if n, isNum := v.(lua.LNumber); isNum && k.Type() == lua.LTString {
			bonus[k.String()] = int(n)
		}
	})
	return bonus, true
}

func (e *Engine) amountTable(m map[string]int) *lua.LTable {
	t := e.vm.NewTable()
	for k, v := range m {
		t.RawSetString(k, lua.LNumber(v))
	}
	return t
}

// callIntFunc calls a Lua function with int args and returns an int result,
// or def when the function is missing or fails.
func (e *Engine) callIntFunc(def int, name string, args ...int) int {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return def
	}

	lArgs := make([]lua.LValue, len(args))
	for i, a := range args {
		lArgs[i] = lua.LNumber(a)
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lArgs...); err != nil {
		e.log.Error("lua call error", zap.String("func", name), zap.Error(err))
		return def
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	n, ok := result.(lua.LNumber)
	if !ok {
		return def
	}
	return int(n)
}

// PauseRetryTicks lets scripts stretch the resource retry interval for large
// blueprints via pause_retry_ticks(element_count, default_ticks).
func (e *Engine) PauseRetryTicks(elements, def int) int {
	n := e.callIntFunc(def, "pause_retry_ticks", elements, def)
	if n <= 0 {
		return def
	}
	return n
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
