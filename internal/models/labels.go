// Package models defines data structures for the Bodhibot teaching pipeline.
package models

import (
	"fmt"
	"strings"
)

// CognitiveLevel is a coarse classification of the asker's familiarity
// with Buddhist doctrine, used to calibrate response depth.
type CognitiveLevel string

const (
	LevelFoundational      CognitiveLevel = "foundational"
	LevelExploratory       CognitiveLevel = "exploratory"
	LevelDeepUnderstanding CognitiveLevel = "deep_understanding"
	LevelPractice          CognitiveLevel = "practice"
)

// CognitiveLevels lists every level in declaration order.
var CognitiveLevels = []CognitiveLevel{
	LevelFoundational,
	LevelExploratory,
	LevelDeepUnderstanding,
	LevelPractice,
}

// QuestionType classifies what the asker is looking for. Exactly one per turn.
type QuestionType string

const (
	TypeEmotionalSupport   QuestionType = "emotional_support"
	TypeDoctrinal          QuestionType = "doctrinal"
	TypePracticeGuidance   QuestionType = "practice_guidance"
	TypeExploratoryInquiry QuestionType = "exploratory_inquiry"
)

// QuestionTypes lists every type in declaration order.
var QuestionTypes = []QuestionType{
	TypeEmotionalSupport,
	TypeDoctrinal,
	TypePracticeGuidance,
	TypeExploratoryInquiry,
}

// Strategy is one of the four-attraction (四攝法) pedagogical strategies
// that choose the manner of a response.
type Strategy string

const (
	StrategyGiving           Strategy = "giving"            // 布施
	StrategyKindSpeech       Strategy = "kind_speech"       // 愛語
	StrategyBeneficialAction Strategy = "beneficial_action" // 利行
	StrategyIdentification   Strategy = "identification"    // 同事
)

// Strategies lists every strategy in declaration order.
var Strategies = []Strategy{
	StrategyGiving,
	StrategyKindSpeech,
	StrategyBeneficialAction,
	StrategyIdentification,
}

// levelAliases maps classifier output (English and the Chinese labels the
// prompts produce) onto CognitiveLevel values.
var levelAliases = map[string]CognitiveLevel{
	"foundational":       LevelFoundational,
	"beginner":           LevelFoundational,
	"初入門階段":              LevelFoundational,
	"初入門":                LevelFoundational,
	"exploratory":        LevelExploratory,
	"基礎修行階段":             LevelExploratory,
	"基礎修行":               LevelExploratory,
	"deep_understanding": LevelDeepUnderstanding,
	"deep understanding": LevelDeepUnderstanding,
	"進階修行階段":             LevelDeepUnderstanding,
	"進階修行":               LevelDeepUnderstanding,
	"practice":           LevelPractice,
	"實修階段":               LevelPractice,
	"實修":                 LevelPractice,
}

var typeAliases = map[string]QuestionType{
	"emotional_support":   TypeEmotionalSupport,
	"emotional support":   TypeEmotionalSupport,
	"煩惱解脫型":               TypeEmotionalSupport,
	"煩惱解脫":                TypeEmotionalSupport,
	"doctrinal":           TypeDoctrinal,
	"教理理解型":               TypeDoctrinal,
	"教理理解":                TypeDoctrinal,
	"practice_guidance":   TypePracticeGuidance,
	"practice guidance":   TypePracticeGuidance,
	"修行方法型":               TypePracticeGuidance,
	"修行方法":                TypePracticeGuidance,
	"exploratory_inquiry": TypeExploratoryInquiry,
	"exploratory inquiry": TypeExploratoryInquiry,
	"信仰疑惑型":               TypeExploratoryInquiry,
	"信仰疑惑":                TypeExploratoryInquiry,
}

var strategyAliases = map[string]Strategy{
	"giving":            StrategyGiving,
	"布施":                StrategyGiving,
	"kind_speech":       StrategyKindSpeech,
	"kind speech":       StrategyKindSpeech,
	"愛語":                StrategyKindSpeech,
	"beneficial_action": StrategyBeneficialAction,
	"beneficial action": StrategyBeneficialAction,
	"利行":                StrategyBeneficialAction,
	"identification":    StrategyIdentification,
	"同事":                StrategyIdentification,
}

// ParseCognitiveLevel maps free text onto a CognitiveLevel.
// The classifier's LLM output is untrusted input; unknown labels are an error.
func ParseCognitiveLevel(s string) (CognitiveLevel, error) {
	if level, ok := levelAliases[normalizeLabel(s)]; ok {
		return level, nil
	}
	return "", fmt.Errorf("unknown cognitive level: %q", s)
}

// ParseQuestionType maps free text onto a QuestionType.
func ParseQuestionType(s string) (QuestionType, error) {
	if qt, ok := typeAliases[normalizeLabel(s)]; ok {
		return qt, nil
	}
	return "", fmt.Errorf("unknown question type: %q", s)
}

// ParseStrategy maps free text onto a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	if st, ok := strategyAliases[normalizeLabel(s)]; ok {
		return st, nil
	}
	return "", fmt.Errorf("unknown strategy: %q", s)
}

// normalizeLabel lowercases and strips the quoting/punctuation LLMs tend to
// wrap labels in.
func normalizeLabel(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.Trim(s, "\"'`.,:;()[]{}《》「」【】")
	return strings.TrimSpace(s)
}
