package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/qurb/engine/internal/core/system"
	"github.com/qurb/engine/internal/scene"
)

// CleanupSystem flushes the deferred entity destruction queue at frame end.
// Phase 4 (Cleanup).
type CleanupSystem struct {
	scene *scene.Scene
	log   *zap.Logger
}

func NewCleanupSystem(s *scene.Scene, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{scene: s, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	if n := s.scene.FlushDestroyQueue(); n > 0 {
		s.log.Debug("entities destroyed", zap.Int("count", n))
	}
}
