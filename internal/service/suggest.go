package service

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/bodhibot/bodhibot-go/internal/config"
	"github.com/bodhibot/bodhibot-go/internal/models"
)

// CatalogCategory is one themed group of preset questions.
type CatalogCategory struct {
	Name      string   `yaml:"name"`
	Questions []string `yaml:"questions"`
}

// Catalog is the full preset-question hierarchy backing quick replies.
type Catalog struct {
	Categories []CatalogCategory `yaml:"categories"`
}

//go:embed catalog.yaml
var defaultCatalogYAML []byte

var defaultCatalog = sync.OnceValue(func() Catalog {
	var c Catalog
	if err := yaml.Unmarshal(defaultCatalogYAML, &c); err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
	}
	return c
})

// DefaultCatalog returns the built-in preset questions. Deployments can
// override it with LoadCatalog.
func DefaultCatalog() Catalog {
	return defaultCatalog()
}

// LoadCatalog reads a catalog override from a YAML file.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("reading catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	for i, cat := range c.Categories {
		if cat.Name == "" {
			return Catalog{}, fmt.Errorf("catalog %s: category %d missing name", path, i)
		}
		if len(cat.Questions) == 0 {
			return Catalog{}, fmt.Errorf("catalog %s: category %q has no questions", path, cat.Name)
		}
	}
	return c, nil
}

// Messaging platforms cap quick-reply label length; overflow is trimmed
// with an ellipsis while the full question stays in Text.
const labelRuneLimit = 20

// Suggester produces quick-reply option sets from the preset catalog.
// All three modes are pure functions of the catalog and their inputs.
type Suggester struct {
	catalog         Catalog
	maxQuickReplies int
	suggestionLimit int
}

func NewSuggester(catalog Catalog, cfg config.Config) *Suggester {
	return &Suggester{
		catalog:         catalog,
		maxQuickReplies: cfg.MaxQuickReplies,
		suggestionLimit: cfg.SuggestionLimit,
	}
}

// Root returns one entry per catalog category, in catalog order.
func (s *Suggester) Root() []models.QuickReplyOption {
	out := make([]models.QuickReplyOption, 0, len(s.catalog.Categories))
	for _, cat := range s.catalog.Categories {
		if len(out) >= s.maxQuickReplies {
			break
		}
		out = append(out, models.QuickReplyOption{
			Label:    truncateLabel(cat.Name),
			Text:     cat.Name,
			Category: cat.Name,
		})
	}
	return out
}

// Category returns the preset questions under one category.
func (s *Suggester) Category(name string) ([]models.QuickReplyOption, error) {
	for _, cat := range s.catalog.Categories {
		if cat.Name != name {
			continue
		}
		out := make([]models.QuickReplyOption, 0, len(cat.Questions))
		for _, q := range cat.Questions {
			if len(out) >= s.maxQuickReplies {
				break
			}
			out = append(out, models.QuickReplyOption{
				Label:    truncateLabel(q),
				Text:     q,
				Category: cat.Name,
			})
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown category %q", name)
}

// Contextual scores each category against the recent conversation, picks
// the highest-scoring one (ties keep catalog declaration order) and returns
// up to suggestionLimit of its questions in declared order, padded with root
// category options up to maxQuickReplies. Scoring is rune-bigram overlap
// summed over a category's questions, which needs no segmentation and works
// for CJK text; identical inputs always yield identical suggestions.
func (s *Suggester) Contextual(recent []string) []models.QuickReplyOption {
	if len(s.catalog.Categories) == 0 {
		return nil
	}

	historyGrams := make(map[string]struct{})
	for _, text := range recent {
		for _, g := range runeBigrams(text) {
			historyGrams[g] = struct{}{}
		}
	}

	best, bestScore := 0, -1
	for i, cat := range s.catalog.Categories {
		score := 0
		for _, q := range cat.Questions {
			for _, g := range runeBigrams(q) {
				if _, ok := historyGrams[g]; ok {
					score++
				}
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	winner := s.catalog.Categories[best]

	limit := s.suggestionLimit
	if limit > s.maxQuickReplies {
		limit = s.maxQuickReplies
	}
	out := make([]models.QuickReplyOption, 0, limit)
	for _, q := range winner.Questions {
		if len(out) >= limit {
			break
		}
		out = append(out, models.QuickReplyOption{
			Label:    truncateLabel(q),
			Text:     q,
			Category: winner.Name,
		})
	}
	for _, opt := range s.Root() {
		if len(out) >= s.maxQuickReplies {
			break
		}
		out = append(out, opt)
	}
	return out
}

func runeBigrams(s string) []string {
	runes := []rune(s)
	if len(runes) < 2 {
		return nil
	}
	grams := make([]string, 0, len(runes)-1)
	for i := 0; i+1 < len(runes); i++ {
		grams = append(grams, string(runes[i:i+2]))
	}
	return grams
}

func truncateLabel(s string) string {
	runes := []rune(s)
	if len(runes) <= labelRuneLimit {
		return s
	}
	return string(runes[:labelRuneLimit-1]) + "…"
}
