// profile drives the entity registry through a create, iterate and recycle
// workload under a profiler.
//
//	go build ./cmd/profile
//	./profile -mode mem
//	go tool pprof -http=":8000" -nodefraction=0.001 ./profile mem.pprof
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/profile"

	"github.com/qurb/engine/internal/core/ecs"
	"github.com/qurb/engine/internal/scene"
)

type velocity struct {
	V mgl32.Vec3
}

func main() {
	mode := flag.String("mode", "mem", "profile kind: cpu, mem or none")
	rounds := flag.Int("rounds", 20, "registries to build")
	iters := flag.Int("iters", 200, "update passes per registry")
	entities := flag.Int("entities", 10000, "entities per registry")
	out := flag.String("out", ".", "profile output directory")
	flag.Parse()

	var p interface{ Stop() }
	switch *mode {
	case "cpu":
		p = profile.Start(profile.CPUProfile, profile.ProfilePath(*out), profile.NoShutdownHook)
	case "mem":
		p = profile.Start(profile.MemProfileAllocs, profile.ProfilePath(*out), profile.NoShutdownHook)
	case "none":
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(2)
	}

	live := run(*rounds, *iters, *entities)
	if p != nil {
		p.Stop()
	}
	fmt.Printf("rounds=%d iters=%d entities=%d live=%d\n", *rounds, *iters, *entities, live)
}

func run(rounds, iters, numEntities int) int {
	live := 0
	for range rounds {
		r := ecs.NewRegistry()
		ids := make([]ecs.EntityID, 0, numEntities)
		for i := range numEntities {
			e := r.CreateEntity()
			ecs.Add(e, scene.NewTransform())
			if i%2 == 0 {
				ecs.Add(e, velocity{V: mgl32.Vec3{1, 0, 0}})
			}
			ids = append(ids, e.ID())
		}

		for it := range iters {
			ecs.Each2(r, func(_ ecs.EntityID, tr *scene.TransformComponent, v *velocity) {
				tr.Position = tr.Position.Add(v.V.Mul(1.0 / 60))
			})
			// Recycle a slice of entities so the free list is exercised.
			if it%10 == 0 {
				for _, id := range ids[:numEntities/10] {
					_ = r.DestroyEntity(id)
				}
				for i := range numEntities / 10 {
					e := r.CreateEntity()
					ecs.Add(e, scene.NewTransform())
					ids[i] = e.ID()
				}
			}
		}
		live = r.LiveCount()
	}
	return live
}
