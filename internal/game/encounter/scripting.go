package encounter

import (
	"github.com/cory-johannsen/skirmish/internal/game/unit"
	"github.com/cory-johannsen/skirmish/internal/scripting"
)

// BindScripts points mgr's battlefield queries at this encounter.
//
// Precondition: mgr must not be nil.
// Postcondition: Lua hooks run through mgr observe e's live state.
func (e *Encounter) BindScripts(mgr *scripting.Manager) {
	mgr.GetUnit = e.unitInfo
	mgr.CountLiving = func(side string) int {
		return len(e.state.Living(unit.Side(side)))
	}
}

func (e *Encounter) unitInfo(uid string) *scripting.UnitInfo {
	u, ok := e.state.Unit(uid)
	if !ok {
		return nil
	}
	info := &scripting.UnitInfo{
		UID:   u.ID,
		Name:  u.Name,
		Side:  string(u.Side),
		Tier:  string(u.Tier),
		HP:    u.HP,
		MaxHP: u.Current.MaxHealth,
		AP:    u.AP,
		X:     u.Position.X,
		Y:     u.Position.Y,
	}
	for _, in := range u.Statuses.All() {
		info.Statuses = append(info.Statuses, string(in.Kind))
	}
	return info
}
