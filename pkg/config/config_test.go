package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/raceway/pkg/route"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raceway.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Tolerance != route.DefaultDistanceTolerance {
		t.Errorf("tolerance = %g, want %g", cfg.Tolerance, route.DefaultDistanceTolerance)
	}
	if cfg.Kernel != "sdfx" {
		t.Errorf("kernel = %q, want sdfx", cfg.Kernel)
	}
	if cfg.DefaultDiameter != 20.0 {
		t.Errorf("default diameter = %g, want 20", cfg.DefaultDiameter)
	}
	if cfg.Debug {
		t.Error("debug should default to false")
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
	if cfg != Default() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
tolerance: 0.01
angular_tolerance: 1.0e-5
default_diameter: 25
kernel: manifold
debug: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Tolerance != 0.01 {
		t.Errorf("tolerance = %g, want 0.01", cfg.Tolerance)
	}
	if cfg.Angular != 1e-5 {
		t.Errorf("angular = %g, want 1e-5", cfg.Angular)
	}
	if cfg.DefaultDiameter != 25 {
		t.Errorf("default diameter = %g, want 25", cfg.DefaultDiameter)
	}
	if cfg.Kernel != "manifold" {
		t.Errorf("kernel = %q, want manifold", cfg.Kernel)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `debug: true`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	if cfg.Tolerance != Default().Tolerance {
		t.Errorf("tolerance = %g, want default", cfg.Tolerance)
	}
	if cfg.Kernel != "sdfx" {
		t.Errorf("kernel = %q, want default sdfx", cfg.Kernel)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "tolerance: [not a number")
	cfg, err := Load(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if cfg != Default() {
		t.Errorf("cfg = %+v, want defaults on parse error", cfg)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative tolerance", "tolerance: -1"},
		{"zero angular", "angular_tolerance: 0"},
		{"negative diameter", "default_diameter: -20"},
		{"unknown kernel", "kernel: openscad"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			cfg, err := Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if cfg != Default() {
				t.Errorf("cfg = %+v, want defaults on invalid config", cfg)
			}
		})
	}
}

func TestRouteTolerance(t *testing.T) {
	cfg := Config{Tolerance: 0.1, Angular: 0.01}
	tol := cfg.RouteTolerance()
	if tol.Distance != 0.1 || tol.Angular != 0.01 {
		t.Errorf("RouteTolerance = %+v", tol)
	}
}

func TestDocumentDefaults(t *testing.T) {
	cfg := Config{Tolerance: 0.1, Angular: 0.01, DefaultDiameter: 32}
	def := cfg.DocumentDefaults()
	if def.Tolerance != 0.1 {
		t.Errorf("tolerance = %g, want 0.1", def.Tolerance)
	}
	if def.Angular != 0.01 {
		t.Errorf("angular = %g, want 0.01", def.Angular)
	}
	if def.Diameter != 32 {
		t.Errorf("diameter = %g, want 32", def.Diameter)
	}
}
