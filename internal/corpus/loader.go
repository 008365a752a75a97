package corpus

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bodhibot/bodhibot-go/internal/models"
)

// Source is one scripture in the corpus manifest.
type Source struct {
	Title       string `yaml:"title"`
	CanonicalID string `yaml:"canonical_id"`
	File        string `yaml:"file"`
}

// Manifest lists the scripture files to index.
type Manifest struct {
	Sources []Source `yaml:"sources"`
}

// DefaultSources is the canonical catalog served when no manifest overrides
// it. Canonical IDs follow the CBETA Taishō numbering.
var DefaultSources = []Source{
	{Title: "楞嚴經", CanonicalID: "T0945", File: "T0945.txt"},
	{Title: "法華經", CanonicalID: "T0262", File: "T0262.txt"},
	{Title: "普賢行願品", CanonicalID: "T0293", File: "T0293.txt"},
	{Title: "地藏經", CanonicalID: "T0412", File: "T0412.txt"},
	{Title: "藥師經", CanonicalID: "T0449", File: "T0449.txt"},
	{Title: "金剛經", CanonicalID: "T0235", File: "T0235.txt"},
	{Title: "六祖壇經", CanonicalID: "T2008", File: "T2008.txt"},
	{Title: "摩訶止觀", CanonicalID: "T1911", File: "T1911.txt"},
}

// LoadManifest reads a YAML corpus manifest. Every source must carry a
// title, canonical ID, and file.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}

	for i, s := range m.Sources {
		if s.Title == "" || s.CanonicalID == "" || s.File == "" {
			return Manifest{}, fmt.Errorf("manifest source %d: title, canonical_id and file are all required", i)
		}
	}
	return m, nil
}

// BuildPassages reads a source file and chunks it into passages.
// CanonicalRef is "<canonical_id>.<chunk ordinal>", which makes source-level
// deduplication a prefix comparison at query time. Embeddings are attached
// later by the ingest step.
func BuildPassages(baseDir string, src Source, config ChunkConfig) ([]models.ScripturePassage, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, src.File))
	if err != nil {
		return nil, fmt.Errorf("read source %s: %w", src.CanonicalID, err)
	}

	chunks := ChunkText(string(data), config)
	passages := make([]models.ScripturePassage, 0, len(chunks))
	for i, chunk := range chunks {
		passages = append(passages, models.ScripturePassage{
			SourceTitle:  src.Title,
			CanonicalRef: fmt.Sprintf("%s.%04d", src.CanonicalID, i+1),
			Text:         chunk,
		})
	}
	return passages, nil
}
