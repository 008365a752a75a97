// Package corpus loads scripture sources and splits them into passages
// for the vector index.
package corpus

import (
	"strings"
)

// sentenceEnders terminate a classical-Chinese sentence or clause.
var sentenceEnders = map[rune]bool{
	'。': true,
	'！': true,
	'？': true,
	'；': true,
	'!': true,
	'?': true,
	';': true,
	'\n': true,
}

// ChunkConfig defines chunking parameters, all in runes (not bytes):
// CJK text is 3 bytes per character and byte budgets would skew badly.
type ChunkConfig struct {
	// TargetRunes: ideal chunk size.
	TargetRunes int
	// MinRunes: chunks smaller than this merge with the previous chunk.
	MinRunes int
	// MaxRunes: hard upper bound; oversized sentences are split mid-clause.
	MaxRunes int
}

// DefaultChunkConfig returns sensible defaults for sutra text.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		TargetRunes: 500,
		MinRunes:    50,
		MaxRunes:    800,
	}
}

// SplitSentences splits text on sentence-ending punctuation, keeping the
// terminator attached to its sentence. Whitespace-only segments are dropped.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if sentenceEnders[r] {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// ChunkText splits scripture text into passage-sized chunks on sentence
// boundaries. Sentences accumulate until the target size; a sentence longer
// than MaxRunes is split hard at MaxRunes.
func ChunkText(text string, config ChunkConfig) []string {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder
	currentRunes := 0

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
		currentRunes = 0
	}

	for _, sentence := range sentences {
		runes := []rune(sentence)

		// Oversized sentence: emit what we have, then hard-split it.
		if len(runes) > config.MaxRunes {
			flush()
			for start := 0; start < len(runes); start += config.MaxRunes {
				end := start + config.MaxRunes
				if end > len(runes) {
					end = len(runes)
				}
				chunks = append(chunks, string(runes[start:end]))
			}
			continue
		}

		if currentRunes+len(runes) > config.TargetRunes && currentRunes > 0 {
			flush()
		}
		current.WriteString(sentence)
		currentRunes += len(runes)
	}
	flush()

	// Merge a trailing fragment below MinRunes into its predecessor,
	// provided the merge stays within MaxRunes.
	if len(chunks) >= 2 {
		last := chunks[len(chunks)-1]
		prev := chunks[len(chunks)-2]
		if len([]rune(last)) < config.MinRunes &&
			len([]rune(prev))+len([]rune(last)) <= config.MaxRunes {
			chunks[len(chunks)-2] = prev + last
			chunks = chunks[:len(chunks)-1]
		}
	}

	return chunks
}
