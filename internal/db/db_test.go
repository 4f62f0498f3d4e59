package db

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/luxreport/luxreport/internal/illum"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testProject() *Project {
	return &Project{
		Name:      "Office A",
		SpaceType: "office",
		Room: illum.RoomGeometry{
			Length: 10, Width: 8, Height: 3, WorkplaneHeight: 0.8,
			CeilingReflectance: 0.7, WallReflectance: 0.5, FloorReflectance: 0.2,
		},
		Layout: illum.NewLuminaireLayout(3, 3, 2.2, 5000, illum.ArchetypePanel, nil),
	}
}

func TestSaveAndGetProject(t *testing.T) {
	db := newTestDB(t)

	id, err := db.SaveProject(testProject())
	if err != nil {
		t.Fatalf("SaveProject: %v", err)
	}
	if id == "" {
		t.Fatal("SaveProject returned empty id")
	}

	got, err := db.GetProject(id)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if got.Name != "Office A" || got.SpaceType != "office" {
		t.Errorf("project fields mismatch: %+v", got)
	}
	if got.Room.Length != 10 || got.Room.CeilingReflectance != 0.7 {
		t.Errorf("room round-trip mismatch: %+v", got.Room)
	}
	if got.Layout.Rows != 3 || got.Layout.LumensPerUnit != 5000 {
		t.Errorf("layout round-trip mismatch: %+v", got.Layout)
	}
}

func TestSaveProjectUpsert(t *testing.T) {
	db := newTestDB(t)

	p := testProject()
	id, err := db.SaveProject(p)
	if err != nil {
		t.Fatalf("SaveProject: %v", err)
	}

	p.Name = "Office A (revised)"
	if _, err := db.SaveProject(p); err != nil {
		t.Fatalf("SaveProject update: %v", err)
	}

	got, err := db.GetProject(id)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if got.Name != "Office A (revised)" {
		t.Errorf("update not applied: %q", got.Name)
	}

	projects, err := db.ListProjects()
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 1 {
		t.Errorf("upsert created duplicate rows: %d projects", len(projects))
	}
}

func TestGetProjectMissing(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetProject("nope")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestDeleteProject(t *testing.T) {
	db := newTestDB(t)

	id, err := db.SaveProject(testProject())
	if err != nil {
		t.Fatalf("SaveProject: %v", err)
	}
	if _, err := db.SaveCalculation(&Calculation{ProjectID: id, Spacing: 0.5, Grid: illum.IlluminanceGrid{PointsX: 1, PointsY: 1, Values: [][]float64{{100}}}}); err != nil {
		t.Fatalf("SaveCalculation: %v", err)
	}

	if err := db.DeleteProject(id); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if _, err := db.GetProject(id); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("project still present after delete: %v", err)
	}
	if _, err := db.LatestCalculation(id); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("calculations still present after delete: %v", err)
	}
}

func TestCalculationRoundTrip(t *testing.T) {
	db := newTestDB(t)

	id, err := db.SaveProject(testProject())
	if err != nil {
		t.Fatalf("SaveProject: %v", err)
	}

	grid := illum.IlluminanceGrid{
		Values:  [][]float64{{100, 200}, {300, 400}},
		Spacing: 0.5, PointsX: 2, PointsY: 2,
		RoomLength: 10, RoomWidth: 8,
		Min: 100, Max: 400, Average: 250,
	}
	metrics := illum.MetricsSummary{
		Average:          250,
		Min:              100,
		Max:              400,
		UniformityMinAvg: illum.DefinedMetric(0.4),
		// Diversity left undefined on purpose: it must survive as null.
	}

	if _, err := db.SaveCalculation(&Calculation{ProjectID: id, Spacing: 0.5, Grid: grid, Metrics: metrics}); err != nil {
		t.Fatalf("SaveCalculation: %v", err)
	}

	got, err := db.LatestCalculation(id)
	if err != nil {
		t.Fatalf("LatestCalculation: %v", err)
	}
	if got.Grid.Values[1][1] != 400 || got.Grid.PointsX != 2 {
		t.Errorf("grid round-trip mismatch: %+v", got.Grid)
	}
	if !got.Metrics.UniformityMinAvg.Defined || got.Metrics.UniformityMinAvg.Value != 0.4 {
		t.Errorf("defined metric lost: %+v", got.Metrics.UniformityMinAvg)
	}
	if got.Metrics.Diversity.Defined {
		t.Errorf("undefined metric became defined: %+v", got.Metrics.Diversity)
	}
}
