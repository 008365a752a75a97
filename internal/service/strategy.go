package service

import (
	"fmt"

	"github.com/bodhibot/bodhibot-go/internal/models"
)

type strategyKey struct {
	level models.CognitiveLevel
	qtype models.QuestionType
}

// strategyTable maps every (cognitive level, question type) pair to one of
// the four-attraction strategies. Emotional support always answers with
// kind speech and practice guidance with beneficial action, regardless of
// level; doctrinal and exploratory questions shift from giving toward
// identification as the asker deepens.
var strategyTable = map[strategyKey]models.Strategy{
	{models.LevelFoundational, models.TypeEmotionalSupport}:      models.StrategyKindSpeech,
	{models.LevelExploratory, models.TypeEmotionalSupport}:       models.StrategyKindSpeech,
	{models.LevelDeepUnderstanding, models.TypeEmotionalSupport}: models.StrategyKindSpeech,
	{models.LevelPractice, models.TypeEmotionalSupport}:          models.StrategyKindSpeech,

	{models.LevelFoundational, models.TypePracticeGuidance}:      models.StrategyBeneficialAction,
	{models.LevelExploratory, models.TypePracticeGuidance}:       models.StrategyBeneficialAction,
	{models.LevelDeepUnderstanding, models.TypePracticeGuidance}: models.StrategyBeneficialAction,
	{models.LevelPractice, models.TypePracticeGuidance}:          models.StrategyBeneficialAction,

	{models.LevelFoundational, models.TypeDoctrinal}:      models.StrategyGiving,
	{models.LevelExploratory, models.TypeDoctrinal}:       models.StrategyGiving,
	{models.LevelDeepUnderstanding, models.TypeDoctrinal}: models.StrategyIdentification,
	{models.LevelPractice, models.TypeDoctrinal}:          models.StrategyBeneficialAction,

	{models.LevelFoundational, models.TypeExploratoryInquiry}:      models.StrategyGiving,
	{models.LevelExploratory, models.TypeExploratoryInquiry}:       models.StrategyIdentification,
	{models.LevelDeepUnderstanding, models.TypeExploratoryInquiry}: models.StrategyIdentification,
	{models.LevelPractice, models.TypeExploratoryInquiry}:          models.StrategyBeneficialAction,
}

// SelectStrategy resolves the pedagogical strategy for a classified turn.
// The lookup is pure and deterministic.
func SelectStrategy(level models.CognitiveLevel, qtype models.QuestionType) (models.Strategy, error) {
	s, ok := strategyTable[strategyKey{level, qtype}]
	if !ok {
		return "", fmt.Errorf("%w: no mapping for (%s, %s)", ErrStrategyTableGap, level, qtype)
	}
	return s, nil
}

// ValidateStrategyTable checks that every declared (level, type) pair has a
// mapping. Called at startup so a label added without a table entry fails
// fast instead of surfacing mid-conversation.
func ValidateStrategyTable() error {
	for _, level := range models.CognitiveLevels {
		for _, qtype := range models.QuestionTypes {
			if _, ok := strategyTable[strategyKey{level, qtype}]; !ok {
				return fmt.Errorf("%w: no mapping for (%s, %s)", ErrStrategyTableGap, level, qtype)
			}
		}
	}
	return nil
}
