package data

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Vec3 is a YAML triple such as [0, 1, 0].
type Vec3 [3]float32

// CameraDesc configures a camera entity.
type CameraDesc struct {
	Projection string  `yaml:"projection"` // "perspective" or "orthographic"
	FOV        float32 `yaml:"fov"`        // degrees, perspective only
	Size       float32 `yaml:"size"`       // half height, orthographic only
	Near       float32 `yaml:"near"`
	Far        float32 `yaml:"far"`
	Primary    bool    `yaml:"primary"`
}

// EntityDesc is one entity of a scene file. Every field but Name is optional.
type EntityDesc struct {
	Name     string      `yaml:"name"`
	Position Vec3        `yaml:"position"`
	Rotation Vec3        `yaml:"rotation"` // Euler angles in degrees
	Scale    *Vec3       `yaml:"scale"`    // nil = [1, 1, 1]
	Mesh     string      `yaml:"mesh"`     // built-in primitive name
	Texture  string      `yaml:"texture"`  // texture file, or "default"
	Script   string      `yaml:"script"`   // Lua file under the scripting dir
	Camera   *CameraDesc `yaml:"camera"`
}

// SceneDescription is a scene file.
type SceneDescription struct {
	Name     string       `yaml:"name"`
	Entities []EntityDesc `yaml:"entities"`
}

// LoadSceneDescription loads and validates a scene YAML file.
func LoadSceneDescription(path string) (*SceneDescription, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	return ParseSceneDescription(raw)
}

func ParseSceneDescription(raw []byte) (*SceneDescription, error) {
	var d SceneDescription
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("scene %s: %w", d.Name, err)
	}
	return &d, nil
}

// Validate checks names are unique and camera parameters usable.
func (d *SceneDescription) Validate() error {
	var errs []error
	seen := make(map[string]struct{}, len(d.Entities))
	primaries := 0
	for i, e := range d.Entities {
		if e.Name == "" {
			errs = append(errs, fmt.Errorf("entity %d has no name", i))
		} else if _, dup := seen[e.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate entity name %q", e.Name))
		}
		seen[e.Name] = struct{}{}

		if c := e.Camera; c != nil {
			if c.Primary {
				primaries++
			}
			switch c.Projection {
			case "perspective", "":
				if c.FOV <= 0 || c.FOV >= 180 {
					errs = append(errs, fmt.Errorf("camera %q fov %v out of range", e.Name, c.FOV))
				}
			case "orthographic":
				if c.Size <= 0 {
					errs = append(errs, fmt.Errorf("camera %q size must be positive", e.Name))
				}
			default:
				errs = append(errs, fmt.Errorf("camera %q has unknown projection %q", e.Name, c.Projection))
			}
			if c.Near >= c.Far {
				errs = append(errs, fmt.Errorf("camera %q near %v must be less than far %v", e.Name, c.Near, c.Far))
			}
		}
	}
	if primaries > 1 {
		errs = append(errs, errors.New("more than one primary camera"))
	}
	return errors.Join(errs...)
}

// Find returns the entity named name, or nil.
func (d *SceneDescription) Find(name string) *EntityDesc {
	for i := range d.Entities {
		if d.Entities[i].Name == name {
			return &d.Entities[i]
		}
	}
	return nil
}

// ScaleOrOne returns the configured scale, defaulting to unit scale.
func (e *EntityDesc) ScaleOrOne() Vec3 {
	if e.Scale == nil {
		return Vec3{1, 1, 1}
	}
	return *e.Scale
}
