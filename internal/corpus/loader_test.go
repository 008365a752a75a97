package corpus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.yaml")

	content := `sources:
  - title: 金剛經
    canonical_id: T0235
    file: T0235.txt
  - title: 法華經
    canonical_id: T0262
    file: T0262.txt
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if len(m.Sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(m.Sources))
	}
	if m.Sources[0].CanonicalID != "T0235" {
		t.Errorf("first canonical_id = %q, want T0235", m.Sources[0].CanonicalID)
	}
}

func TestLoadManifestRejectsIncompleteSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.yaml")

	content := `sources:
  - title: 金剛經
    file: T0235.txt
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadManifest(path); err == nil {
		t.Error("expected error for source missing canonical_id")
	}
}

func TestBuildPassages(t *testing.T) {
	dir := t.TempDir()
	text := strings.Repeat("凡所有相，皆是虛妄。若見諸相非相，即見如來。", 40)
	if err := os.WriteFile(filepath.Join(dir, "T0235.txt"), []byte(text), 0644); err != nil {
		t.Fatal(err)
	}

	src := Source{Title: "金剛經", CanonicalID: "T0235", File: "T0235.txt"}
	config := ChunkConfig{TargetRunes: 100, MinRunes: 20, MaxRunes: 200}

	passages, err := BuildPassages(dir, src, config)
	if err != nil {
		t.Fatalf("BuildPassages failed: %v", err)
	}
	if len(passages) < 2 {
		t.Fatalf("got %d passages, want several", len(passages))
	}

	for i, p := range passages {
		if p.SourceTitle != "金剛經" {
			t.Errorf("passage[%d] title = %q", i, p.SourceTitle)
		}
		if !strings.HasPrefix(p.CanonicalRef, "T0235.") {
			t.Errorf("passage[%d] ref = %q, want T0235. prefix", i, p.CanonicalRef)
		}
		if p.Text == "" {
			t.Errorf("passage[%d] has empty text", i)
		}
	}

	// Refs are unique and ordered.
	if passages[0].CanonicalRef != "T0235.0001" {
		t.Errorf("first ref = %q, want T0235.0001", passages[0].CanonicalRef)
	}
}

func TestBuildPassagesMissingFile(t *testing.T) {
	src := Source{Title: "金剛經", CanonicalID: "T0235", File: "missing.txt"}
	if _, err := BuildPassages(t.TempDir(), src, DefaultChunkConfig()); err == nil {
		t.Error("expected error for missing source file")
	}
}
