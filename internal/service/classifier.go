package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bodhibot/bodhibot-go/internal/models"
)

// Completer produces a completion for a system/user prompt pair.
// *llm.Model satisfies this.
type Completer interface {
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

const classifySystemPrompt = `You are a classifier for a Buddhist teaching assistant.
Given a question (and optionally recent conversation turns), output exactly one line:

LEVEL|TYPE

LEVEL is one of: foundational, exploratory, deep_understanding, practice
TYPE is one of: emotional_support, doctrinal, practice_guidance, exploratory_inquiry

Guidance:
- foundational: new to Buddhism, asks what basic terms mean
- exploratory: knows the basics, asks how ideas relate
- deep_understanding: engages doctrine on its own terms, compares texts
- practice: asks from within an established personal practice
- emotional_support: distress, grief, anxiety, seeking comfort
- doctrinal: meaning of teachings, sutra passages, concepts
- practice_guidance: how to meditate, chant, keep precepts
- exploratory_inquiry: open-ended curiosity, "what if", cross-tradition questions

Output the single line only. No explanation, no punctuation beyond the pipe.`

const classifyRetryReminder = `Your previous answer was not parseable. Reply with exactly one line in the form LEVEL|TYPE using only the allowed labels.`

// Classifier assigns a cognitive level and question type to each utterance.
// It never fails a turn: unparseable or erroring completions fall back to
// the most conservative labels after one retry.
type Classifier struct {
	model Completer
}

func NewClassifier(model Completer) *Classifier {
	return &Classifier{model: model}
}

// Classify labels one utterance, using up to the last few conversation turns
// as context. Exactly one level and one type are returned per call.
func (c *Classifier) Classify(ctx context.Context, text string, history []string) (models.CognitiveLevel, models.QuestionType) {
	prompt := buildClassifyPrompt(text, history)

	// The corrective reminder only makes sense when the model answered but
	// the answer did not parse; after a transport error the retry repeats
	// the original prompt.
	retryPrompt := prompt
	raw, err := c.model.GenerateWithSystem(ctx, classifySystemPrompt, prompt)
	if err == nil {
		if level, qtype, perr := parseClassification(raw); perr == nil {
			return level, qtype
		}
		slog.Debug("classification unparseable, retrying", "raw", raw)
		retryPrompt = prompt + "\n\n" + classifyRetryReminder
	} else {
		slog.Warn("classification call failed, retrying", "error", err)
	}

	// One retry, then fall back to the safest labels.
	raw, err = c.model.GenerateWithSystem(ctx, classifySystemPrompt, retryPrompt)
	if err == nil {
		if level, qtype, perr := parseClassification(raw); perr == nil {
			return level, qtype
		}
		slog.Warn("classification unparseable after retry, using defaults", "raw", raw)
	} else {
		slog.Warn("classification failed after retry, using defaults", "error", err)
	}

	return models.LevelFoundational, models.TypeExploratoryInquiry
}

func buildClassifyPrompt(text string, history []string) string {
	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("Recent turns:\n")
		for _, h := range history {
			b.WriteString("- ")
			b.WriteString(h)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Question: ")
	b.WriteString(text)
	return b.String()
}

// parseClassification extracts "LEVEL|TYPE" from a completion. Models wrap
// answers in fences or prose often enough that we scan every line for the
// first one that parses.
func parseClassification(raw string) (models.CognitiveLevel, models.QuestionType, error) {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "`"))
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) != 2 {
			continue
		}
		level, err := models.ParseCognitiveLevel(parts[0])
		if err != nil {
			continue
		}
		qtype, err := models.ParseQuestionType(parts[1])
		if err != nil {
			continue
		}
		return level, qtype, nil
	}
	return "", "", fmt.Errorf("no LEVEL|TYPE line in %q", raw)
}
