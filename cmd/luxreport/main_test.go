package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/luxreport/luxreport/internal/config"
)

const testIES = "TILT=NONE\n1 1000 1 2 1 1 2 0.6 0.6 0\n1 1 40\n0 90\n0\n500 100\n"

func TestLoadDatasetFromScene(t *testing.T) {
	dir := t.TempDir()
	iesPath := filepath.Join(dir, "fixture.ies")
	if err := os.WriteFile(iesPath, []byte(testIES), 0o644); err != nil {
		t.Fatalf("write IES fixture: %v", err)
	}

	scene := &config.SceneConfig{IESFile: &iesPath}
	ds, err := loadDataset(scene)
	if err != nil {
		t.Fatalf("loadDataset: %v", err)
	}
	if ds == nil {
		t.Fatal("loadDataset returned nil for a scene with an ies_file")
	}
	if ds.MaxCandela() != 500 {
		t.Errorf("MaxCandela = %g, want 500", ds.MaxCandela())
	}
}

func TestLoadDatasetFlagOverridesScene(t *testing.T) {
	dir := t.TempDir()
	flagPath := filepath.Join(dir, "flag.ies")
	scenePath := filepath.Join(dir, "scene.ies")
	if err := os.WriteFile(flagPath, []byte(testIES), 0o644); err != nil {
		t.Fatalf("write IES fixture: %v", err)
	}
	// The scene file is deliberately invalid: if the flag wins, it is
	// never read.
	if err := os.WriteFile(scenePath, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("write IES fixture: %v", err)
	}

	old := *iesFile
	*iesFile = flagPath
	defer func() { *iesFile = old }()

	scene := &config.SceneConfig{IESFile: &scenePath}
	ds, err := loadDataset(scene)
	if err != nil {
		t.Fatalf("loadDataset: %v", err)
	}
	if ds == nil || ds.MaxCandela() != 500 {
		t.Errorf("flag IES file should win over the scene's ies_file")
	}
}

func TestLoadDatasetNone(t *testing.T) {
	ds, err := loadDataset(&config.SceneConfig{})
	if err != nil {
		t.Fatalf("loadDataset: %v", err)
	}
	if ds != nil {
		t.Error("loadDataset should return nil when no IES file is configured")
	}
}

func TestLoadDatasetMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.ies")
	if _, err := loadDataset(&config.SceneConfig{IESFile: &missing}); err == nil {
		t.Error("loadDataset succeeded on a missing file")
	}
}
