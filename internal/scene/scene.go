package scene

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/qurb/engine/internal/core/ecs"
	"github.com/qurb/engine/internal/core/event"
)

// Scene owns an entity registry and the ordered list of its live entities.
// Entities are destroyed immediately with DestroyEntity, or at the end of
// the frame with MarkForDestruction and FlushDestroyQueue.
type Scene struct {
	name     string
	registry *ecs.Registry
	entities []ecs.Entity
	events   *event.Bus
	log      *zap.Logger

	pending    []ecs.EntityID
	pendingSet map[ecs.EntityID]struct{}
}

func New(name string, log *zap.Logger) *Scene {
	return &Scene{
		name:       name,
		registry:   ecs.NewRegistry(),
		events:     event.NewBus(),
		log:        log.With(zap.String("scene", name)),
		pendingSet: make(map[ecs.EntityID]struct{}),
	}
}

func (s *Scene) Name() string            { return s.name }
func (s *Scene) Registry() *ecs.Registry { return s.registry }
func (s *Scene) Events() *event.Bus      { return s.events }
func (s *Scene) Len() int                { return len(s.entities) }

// Entities returns the live entities in creation order. The slice is a copy.
func (s *Scene) Entities() []ecs.Entity { return slices.Clone(s.entities) }

func (s *Scene) CreateEntity() ecs.Entity {
	e := s.registry.CreateEntity()
	s.entities = append(s.entities, e)
	return e
}

// CreateNamedEntity creates an entity with a tag and an identity transform.
func (s *Scene) CreateNamedEntity(name string) ecs.Entity {
	e := s.CreateEntity()
	// Adding to a freshly created entity cannot fail.
	_, _ = ecs.Add(e, TagComponent{Name: name})
	_, _ = ecs.Add(e, NewTransform())
	return e
}

// DestroyEntity notifies EntityDestroyed subscribers while the entity is
// still intact, then detaches its components and recycles its id.
func (s *Scene) DestroyEntity(e ecs.Entity) error {
	if e.Registry() != s.registry || !e.Valid() {
		return fmt.Errorf("destroy %v: %w", e, ecs.ErrDeadEntity)
	}
	id := e.ID()
	event.Dispatch(s.events, event.EntityDestroyed{Entity: id, Name: NameOf(e)})

	if err := s.registry.DestroyEntity(id); err != nil {
		return fmt.Errorf("destroy %v: %w", e, err)
	}
	if i := slices.IndexFunc(s.entities, func(x ecs.Entity) bool { return x.ID() == id }); i >= 0 {
		s.entities = slices.Delete(s.entities, i, i+1)
	}
	if _, ok := s.pendingSet[id]; ok {
		delete(s.pendingSet, id)
		s.pending = slices.DeleteFunc(s.pending, func(x ecs.EntityID) bool { return x == id })
	}
	return nil
}

// MarkForDestruction queues e for the next FlushDestroyQueue. Marking twice
// or marking a dead entity is a no-op.
func (s *Scene) MarkForDestruction(e ecs.Entity) {
	if e.Registry() != s.registry || !e.Valid() {
		return
	}
	if _, ok := s.pendingSet[e.ID()]; ok {
		return
	}
	s.pendingSet[e.ID()] = struct{}{}
	s.pending = append(s.pending, e.ID())
}

// PendingDestruction is the number of entities waiting for FlushDestroyQueue.
func (s *Scene) PendingDestruction() int { return len(s.pending) }

// FlushDestroyQueue destroys queued entities in marking order and returns
// how many were destroyed.
func (s *Scene) FlushDestroyQueue() int {
	queue := s.pending
	s.pending = nil
	clear(s.pendingSet)

	n := 0
	for _, id := range queue {
		if err := s.DestroyEntity(ecs.NewEntity(s.registry, id)); err != nil {
			s.log.Debug("queued entity already gone", zap.Uint64("entity", uint64(id)))
			continue
		}
		n++
	}
	return n
}

// FindByName returns the first entity whose tag matches name.
func (s *Scene) FindByName(name string) (ecs.Entity, bool) {
	for _, e := range s.entities {
		if tag, err := ecs.Get[TagComponent](e); err == nil && tag.Name == name {
			return e, true
		}
	}
	return ecs.Entity{}, false
}

// PrimaryCamera returns the first camera flagged primary, falling back to the
// first camera in creation order.
func (s *Scene) PrimaryCamera() (ecs.Entity, *CameraComponent, bool) {
	var (
		first    ecs.Entity
		firstCam *CameraComponent
	)
	for _, e := range s.entities {
		cam, err := ecs.Get[CameraComponent](e)
		if err != nil {
			continue
		}
		if cam.Primary {
			return e, cam, true
		}
		if firstCam == nil {
			first, firstCam = e, cam
		}
	}
	return first, firstCam, firstCam != nil
}

// SetViewportSize propagates a new viewport to every camera without a fixed
// aspect ratio.
func (s *Scene) SetViewportSize(width, height uint32) {
	ecs.Each[CameraComponent](s.registry, func(_ ecs.EntityID, cam *CameraComponent) {
		if !cam.FixedAspect {
			cam.Camera.SetViewportSize(width, height)
		}
	})
}

// Close destroys every entity, newest first, releasing the GPU objects their
// components hold.
func (s *Scene) Close() {
	n := len(s.entities)
	for i := n - 1; i >= 0; i-- {
		if err := s.DestroyEntity(s.entities[i]); err != nil {
			s.log.Warn("destroy on close", zap.Error(err))
		}
	}
	s.pending = nil
	clear(s.pendingSet)
	s.log.Debug("scene closed", zap.Int("entities", n))
}

// NameOf returns e's tag name, or "" when e has no tag.
func NameOf(e ecs.Entity) string {
	if tag, err := ecs.Get[TagComponent](e); err == nil {
		return tag.Name
	}
	return ""
}
