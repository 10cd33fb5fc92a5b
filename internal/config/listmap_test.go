package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultListMapping(t *testing.T) {
	m, err := DefaultListMapping()
	if err != nil {
		t.Fatalf("DefaultListMapping returned error: %v", err)
	}

	cases := map[string]string{
		"Coral Gables":     "XxxKcc",
		"Brickell":         "Yv5Pcp",
		"Penn Quarter":     "R2SfVq",
		"Navy Yard":        "UeAKmV",
		"Dupont Circle":    "VTM8k9",
		"Bryant Park":      "XY7M3j",
		"Brooklyn Heights": "SbFQLU",
		"Manhattan West":   "W74Dbs",
		"Flatiron":         "SnXmCd",
		"Upper East Side":  "Y49Mkm",
	}
	if m.Len() != len(cases) {
		t.Fatalf("unexpected mapping size, got %d want %d", m.Len(), len(cases))
	}
	for name, want := range cases {
		got, ok := m.ListID(name)
		if !ok || got != want {
			t.Errorf("ListID(%q) = %q, %v; want %q", name, got, ok, want)
		}
	}
	if _, ok := m.ListID("Atlantis"); ok {
		t.Errorf("unmapped location resolved to a list")
	}
}

func TestLoadListMapping_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lists.yaml")
	if err := os.WriteFile(path, []byte("lists:\n  Soho: AbC123\n"), 0o600); err != nil {
		t.Fatalf("failed to write mapping file: %v", err)
	}

	m, err := LoadListMapping(path)
	if err != nil {
		t.Fatalf("LoadListMapping returned error: %v", err)
	}
	if id, ok := m.ListID("Soho"); !ok || id != "AbC123" {
		t.Fatalf("unexpected list id %q", id)
	}
	if _, ok := m.ListID("Flatiron"); ok {
		t.Fatalf("file mapping must replace the default mapping")
	}
}

func TestParseListMapping_Errors(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "invalid yaml", body: "lists: ["},
		{name: "empty", body: "lists: {}"},
		{name: "missing list id", body: "lists:\n  Soho: \"\"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseListMapping([]byte(tc.body)); err == nil {
				t.Fatalf("expected error but got nil")
			}
		})
	}
}

func TestLoadListMapping_MissingFile(t *testing.T) {
	if _, err := LoadListMapping(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error but got nil")
	}
}
