package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name    string `toml:"name" yaml:"name"`
	Enabled bool   `toml:"enabled" yaml:"enabled"`
}

var errInvalid = errors.New("name required")

func (s *sample) Validate() error {
	if s.Name == "" {
		return errInvalid
	}
	return nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadTOML(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "from-env")
	p := writeFile(t, "c.toml", "name = \"${SAMPLE_NAME}\"\nenabled = true\n")

	var s sample
	found, err := Load(p, &s)
	if err != nil || !found {
		t.Fatalf("Load = %v, %v", found, err)
	}
	if s.Name != "from-env" || !s.Enabled {
		t.Errorf("got %+v", s)
	}
}

func TestLoadYAML(t *testing.T) {
	p := writeFile(t, "c.yaml", "name: yam\nenabled: true\n")

	var s sample
	if _, err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "yam" || !s.Enabled {
		t.Errorf("got %+v", s)
	}
}

func TestLoadMissingKeepsDefaults(t *testing.T) {
	s := sample{Name: "default"}
	found, err := Load(filepath.Join(t.TempDir(), "none.toml"), &s)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if found {
		t.Error("found = true for missing file")
	}
	if s.Name != "default" {
		t.Errorf("defaults overwritten: %+v", s)
	}
}

func TestLoadMalformed(t *testing.T) {
	p := writeFile(t, "c.toml", "name = \n")
	var s sample
	if _, err := Load(p, &s); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(&sample{}); !errors.Is(err, errInvalid) {
		t.Errorf("err = %v, want errInvalid", err)
	}
	if err := Validate(&sample{Name: "x"}); err != nil {
		t.Errorf("err = %v", err)
	}
	n := 3
	if err := Validate(&n); err != nil {
		t.Errorf("non-validator should pass: %v", err)
	}
}
