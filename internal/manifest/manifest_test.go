package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
dimensions:
  - name: depth
    kind: int
    min: 0
    max: 10
    step: 1
  - name: rate
    kind: real
    real_min: 0
    real_max: 1
  - name: mode
    kind: enum
    values: [fast, balanced, thorough]
config:
  STRATEGY: pro
  LAYERS: logger,cache
`

func writeManifest(t *testing.T, contents string) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing manifest fixture: %v", err)
	}
	return path
}

func TestLoadParsesDimensionsAndConfig(t *testing.T) {
	path := writeManifest(t, sampleYAML)
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.Dimensions) != 3 {
		t.Fatalf("len(Dimensions) = %d, want 3", len(m.Dimensions))
	}
	if m.Config["STRATEGY"] != "pro" {
		t.Errorf("Config[STRATEGY] = %q, want pro", m.Config["STRATEGY"])
	}
}

func TestBuildSpaceConstructsEachDimensionKind(t *testing.T) {
	path := writeManifest(t, sampleYAML)
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sp, err := m.BuildSpace()
	if err != nil {
		t.Fatalf("BuildSpace: %v", err)
	}
	if sp.Len() != 3 {
		t.Fatalf("sp.Len() = %d, want 3", sp.Len())
	}
	if _, _, ok := sp.ByName("mode"); !ok {
		t.Error("expected an enum dimension named mode")
	}
}

func TestBuildSpaceRejectsUnknownKind(t *testing.T) {
	path := writeManifest(t, `
dimensions:
  - name: x
    kind: bogus
config: {}
`)
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := m.BuildSpace(); err == nil {
		t.Error("expected BuildSpace to reject an unknown dimension kind")
	}
}

func TestEnvOverrideWinsOverManifestValue(t *testing.T) {
	path := writeManifest(t, sampleYAML)
	t.Setenv("HARMONY_STRATEGY", "random")
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Config["STRATEGY"] != "random" {
		t.Errorf("Config[STRATEGY] = %q, want env override %q", m.Config["STRATEGY"], "random")
	}
}

func TestBuildConfigurationCopiesEveryKey(t *testing.T) {
	path := writeManifest(t, sampleYAML)
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg := m.BuildConfiguration()
	if cfg.Get("STRATEGY") != "pro" {
		t.Errorf("cfg.Get(STRATEGY) = %q, want pro", cfg.Get("STRATEGY"))
	}
	if cfg.Get("LAYERS") != "logger,cache" {
		t.Errorf("cfg.Get(LAYERS) = %q, want logger,cache", cfg.Get("LAYERS"))
	}
}
