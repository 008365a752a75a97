package corpus

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "empty",
			in:   "",
			want: nil,
		},
		{
			name: "whitespace only",
			in:   "  \n\t ",
			want: nil,
		},
		{
			name: "single sentence",
			in:   "凡所有相，皆是虛妄。",
			want: []string{"凡所有相，皆是虛妄。"},
		},
		{
			name: "multiple terminators",
			in:   "云何應住？云何降伏其心？善哉善哉！",
			want: []string{"云何應住？", "云何降伏其心？", "善哉善哉！"},
		},
		{
			name: "semicolon splits clause",
			in:   "諸惡莫作；眾善奉行。",
			want: []string{"諸惡莫作；", "眾善奉行。"},
		},
		{
			name: "trailing fragment without terminator",
			in:   "如是我聞。一時佛在舍衛國",
			want: []string{"如是我聞。", "一時佛在舍衛國"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("SplitSentences() = %d sentences, want %d: %q", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sentence[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestChunkTextRespectsBounds(t *testing.T) {
	// Build a long text of short sentences.
	sentence := "一切有為法，如夢幻泡影，如露亦如電，應作如是觀。"
	text := strings.Repeat(sentence, 100)

	config := ChunkConfig{TargetRunes: 120, MinRunes: 20, MaxRunes: 200}
	chunks := ChunkText(text, config)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		n := utf8.RuneCountInString(c)
		if n > config.MaxRunes {
			t.Errorf("chunk[%d] has %d runes, exceeds max %d", i, n, config.MaxRunes)
		}
		if !utf8.ValidString(c) {
			t.Errorf("chunk[%d] is not valid UTF-8", i)
		}
	}
}

func TestChunkTextOversizedSentence(t *testing.T) {
	// A single "sentence" with no terminator, longer than MaxRunes.
	text := strings.Repeat("法", 550)

	config := ChunkConfig{TargetRunes: 100, MinRunes: 20, MaxRunes: 200}
	chunks := ChunkText(text, config)

	total := 0
	for i, c := range chunks {
		n := utf8.RuneCountInString(c)
		if n > config.MaxRunes {
			t.Errorf("chunk[%d] has %d runes, exceeds max %d", i, n, config.MaxRunes)
		}
		total += n
	}
	if total != 550 {
		t.Errorf("chunks cover %d runes, want 550", total)
	}
}

func TestChunkTextMergesTrailingFragment(t *testing.T) {
	text := strings.Repeat("如是我聞。", 30) + "佛說。"

	config := ChunkConfig{TargetRunes: 50, MinRunes: 10, MaxRunes: 100}
	chunks := ChunkText(text, config)

	last := chunks[len(chunks)-1]
	if utf8.RuneCountInString(last) < config.MinRunes {
		t.Errorf("trailing chunk has %d runes, below min %d: %q",
			utf8.RuneCountInString(last), config.MinRunes, last)
	}
}

func TestChunkTextEmpty(t *testing.T) {
	if chunks := ChunkText("", DefaultChunkConfig()); chunks != nil {
		t.Errorf("ChunkText(\"\") = %v, want nil", chunks)
	}
}
