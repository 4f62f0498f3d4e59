package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/luxreport/luxreport/internal/illum"
	"github.com/luxreport/luxreport/internal/photometry"
	"github.com/luxreport/luxreport/internal/units"
)

// DefaultSpacing is the calculation grid spacing used when a scene file
// does not specify one, meters.
const DefaultSpacing = 0.5

// Default surface reflectances for scenes that omit them. These are the
// usual assumptions for a finished interior: light ceiling, mid walls,
// dark floor.
const (
	DefaultCeilingReflectance = 0.7
	DefaultWallReflectance    = 0.5
	DefaultFloorReflectance   = 0.2
)

// SceneConfig is the root of a JSON scene file. Optional fields are
// pointers so a partial scene is distinguishable from one that sets a
// field to its zero value; the Get* methods supply defaults.
type SceneConfig struct {
	Room      SceneRoom      `json:"room"`
	Unit      *string        `json:"unit,omitempty"` // length unit of room dims, "m" or "ft"
	Layout    SceneLayout    `json:"layout"`
	Spacing   *float64       `json:"spacing,omitempty"`
	SpaceType *string        `json:"space_type,omitempty"`
	IESFile   *string        `json:"ies_file,omitempty"`
	Observer  *SceneObserver `json:"observer,omitempty"`
	Workers   *int           `json:"workers,omitempty"`
}

// SceneRoom carries the room dimensions in the scene's length unit and
// the optional surface reflectances.
type SceneRoom struct {
	Length          float64 `json:"length"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	WorkplaneHeight float64 `json:"workplane_height"`

	CeilingReflectance *float64 `json:"ceiling_reflectance,omitempty"`
	WallReflectance    *float64 `json:"wall_reflectance,omitempty"`
	FloorReflectance   *float64 `json:"floor_reflectance,omitempty"`
}

// SceneLayout describes the luminaire grid. Archetype and distribution
// are string tags matching the API wire form.
type SceneLayout struct {
	Rows           int     `json:"rows"`
	Cols           int     `json:"cols"`
	MountingHeight float64 `json:"mounting_height"`
	LumensPerUnit  float64 `json:"lumens_per_unit"`

	Archetype    *string `json:"archetype,omitempty"`
	Distribution *string `json:"distribution,omitempty"`
}

// SceneObserver is an optional glare observer: eye position in room
// coordinates plus a horizontal viewing direction.
type SceneObserver struct {
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Z              float64 `json:"z"`
	ViewAzimuthDeg float64 `json:"view_azimuth_deg"`
}

func (c *SceneConfig) GetUnit() string {
	if c.Unit != nil && *c.Unit != "" {
		return *c.Unit
	}
	return units.Meters
}

func (c *SceneConfig) GetSpacing() float64 {
	if c.Spacing != nil {
		return *c.Spacing
	}
	return DefaultSpacing
}

func (c *SceneConfig) GetSpaceType() string {
	if c.SpaceType != nil {
		return *c.SpaceType
	}
	return ""
}

func (c *SceneConfig) GetIESFile() string {
	if c.IESFile != nil {
		return *c.IESFile
	}
	return ""
}

func (c *SceneConfig) GetWorkers() int {
	if c.Workers != nil {
		return *c.Workers
	}
	return 0
}

func (r *SceneRoom) GetCeilingReflectance() float64 {
	if r.CeilingReflectance != nil {
		return *r.CeilingReflectance
	}
	return DefaultCeilingReflectance
}

func (r *SceneRoom) GetWallReflectance() float64 {
	if r.WallReflectance != nil {
		return *r.WallReflectance
	}
	return DefaultWallReflectance
}

func (r *SceneRoom) GetFloorReflectance() float64 {
	if r.FloorReflectance != nil {
		return *r.FloorReflectance
	}
	return DefaultFloorReflectance
}

// RoomGeometry resolves the scene room into engine form, converting
// dimensions to meters when an alternate unit is set.
func (c *SceneConfig) RoomGeometry() (illum.RoomGeometry, error) {
	d, err := units.Normalize(units.Dimensions{
		Length:          c.Room.Length,
		Width:           c.Room.Width,
		Height:          c.Room.Height,
		WorkplaneHeight: c.Room.WorkplaneHeight,
		Unit:            c.GetUnit(),
	})
	if err != nil {
		return illum.RoomGeometry{}, err
	}
	return illum.RoomGeometry{
		Length:             d.Length,
		Width:              d.Width,
		Height:             d.Height,
		WorkplaneHeight:    d.WorkplaneHeight,
		CeilingReflectance: c.Room.GetCeilingReflectance(),
		WallReflectance:    c.Room.GetWallReflectance(),
		FloorReflectance:   c.Room.GetFloorReflectance(),
	}, nil
}

// LuminaireLayout resolves the scene layout into engine form. The dataset,
// when non-nil, attaches measured photometry to every luminaire.
func (c *SceneConfig) LuminaireLayout(ds *photometry.Dataset) illum.LuminaireLayout {
	archetype := illum.ArchetypeDefault
	if c.Layout.Archetype != nil {
		archetype = illum.ParseArchetype(*c.Layout.Archetype)
	}
	layout := illum.NewLuminaireLayout(c.Layout.Rows, c.Layout.Cols, c.Layout.MountingHeight, c.Layout.LumensPerUnit, archetype, ds)
	if c.Layout.Distribution != nil {
		layout.Distribution = illum.ParseDistribution(*c.Layout.Distribution)
	}
	return layout
}

// IllumObserver returns the scene's glare observer, or nil when none is
// configured.
func (c *SceneConfig) IllumObserver() *illum.Observer {
	if c.Observer == nil {
		return nil
	}
	return &illum.Observer{
		Position:       illum.Position{X: c.Observer.X, Y: c.Observer.Y, Z: c.Observer.Z},
		ViewAzimuthDeg: c.Observer.ViewAzimuthDeg,
	}
}

// Validate checks the ranges of everything a scene file may set. Full
// geometric validation happens again inside the calculator; this catches
// the obvious mistakes with a config-file error message.
func (c *SceneConfig) Validate() error {
	if c.Spacing != nil && *c.Spacing <= 0 {
		return fmt.Errorf("spacing must be positive, got %g", *c.Spacing)
	}
	if c.Unit != nil && *c.Unit != "" && !units.IsValidLengthUnit(*c.Unit) {
		return fmt.Errorf("unknown length unit %q (valid: %s)", *c.Unit, units.GetValidLengthUnitsString())
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	for _, refl := range []struct {
		name string
		v    *float64
	}{
		{"ceiling_reflectance", c.Room.CeilingReflectance},
		{"wall_reflectance", c.Room.WallReflectance},
		{"floor_reflectance", c.Room.FloorReflectance},
	} {
		if refl.v != nil && (*refl.v < 0 || *refl.v > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %g", refl.name, *refl.v)
		}
	}
	return nil
}

// LoadScene loads a SceneConfig from a JSON file. The path must have a
// .json extension and the file must be under the max size; fields omitted
// from the JSON keep their defaults, so partial scenes are safe.
func LoadScene(path string) (*SceneConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("scene file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scene file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("scene file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}

	cfg := &SceneConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse scene JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scene: %w", err)
	}
	return cfg, nil
}
