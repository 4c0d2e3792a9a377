package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers all engine.* Lua tables into L:
//
//	engine.log.debug/info/warn(msg)
//	engine.unit(uid)        -> table or nil
//	engine.distance(a, b)   -> Chebyshev distance, or nil for unknown units
//	engine.living(side)     -> number of living units on side
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()

	logTbl := L.NewTable()
	for name, fn := range map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
	} {
		logTbl.RawSetString(name, L.NewFunction(func(L *lua.LState) int {
			fn("lua: " + L.CheckString(1))
			return 0
		}))
	}
	engine.RawSetString("log", logTbl)

	engine.RawSetString("unit", L.NewFunction(m.luaUnit))
	engine.RawSetString("distance", L.NewFunction(m.luaDistance))
	engine.RawSetString("living", L.NewFunction(m.luaLiving))
	L.SetGlobal("engine", engine)
}

func (m *Manager) lookup(uid string) *UnitInfo {
	if m.GetUnit == nil {
		return nil
	}
	return m.GetUnit(uid)
}

func (m *Manager) luaUnit(L *lua.LState) int {
	info := m.lookup(L.CheckString(1))
	if info == nil {
		L.Push(lua.LNil)
		return 1
	}
	t := L.NewTable()
	t.RawSetString("uid", lua.LString(info.UID))
	t.RawSetString("name", lua.LString(info.Name))
	t.RawSetString("side", lua.LString(info.Side))
	t.RawSetString("tier", lua.LString(info.Tier))
	t.RawSetString("hp", lua.LNumber(info.HP))
	t.RawSetString("max_hp", lua.LNumber(info.MaxHP))
	t.RawSetString("ap", lua.LNumber(info.AP))
	t.RawSetString("x", lua.LNumber(info.X))
	t.RawSetString("y", lua.LNumber(info.Y))
	statuses := L.NewTable()
	for _, s := range info.Statuses {
		statuses.Append(lua.LString(s))
	}
	t.RawSetString("statuses", statuses)
	L.Push(t)
	return 1
}

func (m *Manager) luaDistance(L *lua.LState) int {
	a, b := m.lookup(L.CheckString(1)), m.lookup(L.CheckString(2))
	if a == nil || b == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(max(abs(a.X-b.X), abs(a.Y-b.Y))))
	return 1
}

func (m *Manager) luaLiving(L *lua.LState) int {
	side := L.CheckString(1)
	n := 0
	if m.CountLiving != nil {
		n = m.CountLiving(side)
	}
	L.Push(lua.LNumber(n))
	return 1
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
