package event

import "github.com/qurb/engine/internal/core/ecs"

// Scene lifecycle events.

type EntityDestroyed struct {
	Entity ecs.EntityID
	Name   string
}

type SceneLoaded struct {
	Name     string
	Entities int
}
