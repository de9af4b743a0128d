package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c := defaultCatalog()

	if c.Len() != 24 {
		t.Fatalf("expected 24 characters, got %d", c.Len())
	}

	all := c.All()
	for i, ch := range all {
		if ch.ID != i+1 {
			t.Fatalf("position %d holds id %d", i, ch.ID)
		}
		if ch.Name == "" || ch.Image == "" {
			t.Fatalf("character %d is incomplete: %+v", ch.ID, ch)
		}
	}

	all[0].Name = "changed"
	if ch, _ := c.Lookup(1); ch.Name == "changed" {
		t.Fatal("All exposed the catalog's backing array")
	}

	if _, ok := c.Lookup(25); ok {
		t.Fatal("found a character outside the board")
	}
}

func TestNewCatalogValidation(t *testing.T) {
	tests := []struct {
		name       string
		characters []Character
	}{
		{name: "empty"},
		{name: "zero id", characters: []Character{{ID: 0, Name: "Nobody"}}},
		{name: "duplicate id", characters: []Character{{ID: 1, Name: "A"}, {ID: 1, Name: "B"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := newCatalog(tt.characters); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	err := os.WriteFile(good, []byte(`[
		{"id": 1, "name": "Ada", "description": "Mathematician", "image": "ada.png", "gender": "female"},
		{"id": 2, "name": "Alan", "description": "Codebreaker", "image": "alan.png", "gender": "male"}
	]`), 0o600)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := loadCatalog(good)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 characters, got %d", c.Len())
	}
	if ch, ok := c.Lookup(2); !ok || ch.Name != "Alan" || ch.Image != "alan.png" {
		t.Fatalf("unexpected character: %+v", ch)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"id": 1}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loadCatalog(bad); err == nil {
		t.Fatal("expected a parse error")
	}

	if _, err := loadCatalog(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("expected a read error")
	}
}
