package system

import (
	"time"

	coresys "github.com/qurb/engine/internal/core/system"
	"github.com/qurb/engine/internal/scripting"
)

// ScriptSystem runs entity scripts. Phase 1 (Update).
type ScriptSystem struct {
	engine *scripting.Engine
}

func NewScriptSystem(engine *scripting.Engine) *ScriptSystem {
	return &ScriptSystem{engine: engine}
}

func (s *ScriptSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *ScriptSystem) Update(dt time.Duration) {
	s.engine.Update(dt)
}
