package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bodhibot/bodhibot-go/internal/models"
)

// fakeCompleter replays scripted responses in order. A response of "" with
// err set simulates a failed call.
type fakeCompleter struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeCompleter) GenerateWithSystem(_ context.Context, _ string, userPrompt string) (string, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, userPrompt)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var resp string
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	return resp, err
}

func TestClassifyCleanResponse(t *testing.T) {
	fake := &fakeCompleter{responses: []string{"foundational|emotional_support"}}
	c := NewClassifier(fake)

	level, qtype := c.Classify(context.Background(), "我最近壓力很大", nil)

	assert.Equal(t, models.LevelFoundational, level)
	assert.Equal(t, models.TypeEmotionalSupport, qtype)
	assert.Equal(t, 1, fake.calls)
}

func TestClassifyMessyResponses(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		wantLevel models.CognitiveLevel
		wantType  models.QuestionType
	}{
		{
			name:      "fenced answer",
			response:  "```\ndeep_understanding|doctrinal\n```",
			wantLevel: models.LevelDeepUnderstanding,
			wantType:  models.TypeDoctrinal,
		},
		{
			name:      "answer preceded by prose",
			response:  "Based on the question, my classification is:\npractice|practice_guidance",
			wantLevel: models.LevelPractice,
			wantType:  models.TypePracticeGuidance,
		},
		{
			name:      "chinese labels",
			response:  "基礎修行|信仰疑惑型",
			wantLevel: models.LevelExploratory,
			wantType:  models.TypeExploratoryInquiry,
		},
		{
			name:      "padded with spaces",
			response:  "  exploratory | doctrinal  ",
			wantLevel: models.LevelExploratory,
			wantType:  models.TypeDoctrinal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(&fakeCompleter{responses: []string{tt.response}})
			level, qtype := c.Classify(context.Background(), "問題", nil)
			assert.Equal(t, tt.wantLevel, level)
			assert.Equal(t, tt.wantType, qtype)
		})
	}
}

func TestClassifyRetriesOnceThenSucceeds(t *testing.T) {
	fake := &fakeCompleter{responses: []string{"I cannot classify this.", "exploratory|doctrinal"}}
	c := NewClassifier(fake)

	level, qtype := c.Classify(context.Background(), "緣起是什麼意思？", nil)

	assert.Equal(t, 2, fake.calls)
	assert.Equal(t, models.LevelExploratory, level)
	assert.Equal(t, models.TypeDoctrinal, qtype)
	assert.Contains(t, fake.prompts[1], classifyRetryReminder, "unparseable answer gets the corrective reminder")
}

func TestClassifyRetryAfterCallErrorOmitsReminder(t *testing.T) {
	fake := &fakeCompleter{
		responses: []string{"", "practice|doctrinal"},
		errs:      []error{errors.New("connection refused"), nil},
	}
	c := NewClassifier(fake)

	level, qtype := c.Classify(context.Background(), "問題", nil)

	assert.Equal(t, 2, fake.calls)
	assert.Equal(t, models.LevelPractice, level)
	assert.Equal(t, models.TypeDoctrinal, qtype)
	assert.NotContains(t, fake.prompts[1], classifyRetryReminder, "a failed call repeats the original prompt")
	assert.Equal(t, fake.prompts[0], fake.prompts[1])
}

func TestClassifyFallsBackToDefaults(t *testing.T) {
	t.Run("unparseable twice", func(t *testing.T) {
		fake := &fakeCompleter{responses: []string{"nonsense", "still nonsense"}}
		c := NewClassifier(fake)

		level, qtype := c.Classify(context.Background(), "???", nil)

		assert.Equal(t, 2, fake.calls)
		assert.Equal(t, models.LevelFoundational, level)
		assert.Equal(t, models.TypeExploratoryInquiry, qtype)
	})

	t.Run("completion error twice", func(t *testing.T) {
		boom := errors.New("connection refused")
		fake := &fakeCompleter{errs: []error{boom, boom}}
		c := NewClassifier(fake)

		level, qtype := c.Classify(context.Background(), "問題", nil)

		assert.Equal(t, models.LevelFoundational, level)
		assert.Equal(t, models.TypeExploratoryInquiry, qtype)
	})
}

func TestClassifyIncludesHistoryInPrompt(t *testing.T) {
	fake := &fakeCompleter{responses: []string{"practice|practice_guidance"}}
	c := NewClassifier(fake)

	c.Classify(context.Background(), "那我該怎麼繼續？", []string{"初學者如何開始禪修？"})

	assert.Contains(t, fake.prompts[0], "初學者如何開始禪修？")
	assert.Contains(t, fake.prompts[0], "那我該怎麼繼續？")
}

func TestParseClassification(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
	}{
		{"foundational|doctrinal", false},
		{"foundational|doctrinal|extra", true},
		{"foundational", true},
		{"doctrinal|foundational", true}, // swapped fields
		{"", true},
	}
	for _, tt := range tests {
		_, _, err := parseClassification(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseClassification(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
		}
	}
}
