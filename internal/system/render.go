package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/qurb/engine/internal/core/system"
	"github.com/qurb/engine/internal/rhi"
	"github.com/qurb/engine/internal/scene"
)

// RenderSystem records, presents and submits one frame of the scene.
// Phase 3 (Render).
type RenderSystem struct {
	ctx      rhi.RenderContext
	renderer *scene.SceneRenderer
	scene    *scene.Scene
	log      *zap.Logger

	frames int
	failed int
	last   scene.Stats
}

func NewRenderSystem(ctx rhi.RenderContext, renderer *scene.SceneRenderer, s *scene.Scene, log *zap.Logger) *RenderSystem {
	return &RenderSystem{ctx: ctx, renderer: renderer, scene: s, log: log}
}

func (s *RenderSystem) Phase() coresys.Phase { return coresys.PhaseRender }

func (s *RenderSystem) Update(_ time.Duration) {
	s.ctx.BeginFrame()
	stats, err := s.renderer.Render(s.ctx, s.scene)
	if err != nil {
		s.log.Warn("scene render failed", zap.Error(err))
	} else {
		s.ctx.Present()
	}
	if err := s.ctx.EndFrame(); err != nil {
		s.failed++
		s.log.Error("frame rejected", zap.Int("frame", s.frames), zap.Error(err))
	}
	s.frames++
	s.last = stats
}

// Frames is the number of frames submitted, FailedFrames how many of them
// EndFrame rejected.
func (s *RenderSystem) Frames() int            { return s.frames }
func (s *RenderSystem) FailedFrames() int      { return s.failed }
func (s *RenderSystem) LastStats() scene.Stats { return s.last }
