package service

import (
	"errors"
	"testing"

	"github.com/bodhibot/bodhibot-go/internal/models"
)

func TestValidateStrategyTable(t *testing.T) {
	if err := ValidateStrategyTable(); err != nil {
		t.Fatalf("strategy table has gaps: %v", err)
	}
}

func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		name  string
		level models.CognitiveLevel
		qtype models.QuestionType
		want  models.Strategy
	}{
		{"emotional support is always kind speech (foundational)", models.LevelFoundational, models.TypeEmotionalSupport, models.StrategyKindSpeech},
		{"emotional support is always kind speech (practice)", models.LevelPractice, models.TypeEmotionalSupport, models.StrategyKindSpeech},
		{"practice guidance is always beneficial action", models.LevelExploratory, models.TypePracticeGuidance, models.StrategyBeneficialAction},
		{"doctrinal starts with giving", models.LevelFoundational, models.TypeDoctrinal, models.StrategyGiving},
		{"doctrinal still giving while exploring", models.LevelExploratory, models.TypeDoctrinal, models.StrategyGiving},
		{"doctrinal shifts to identification when deep", models.LevelDeepUnderstanding, models.TypeDoctrinal, models.StrategyIdentification},
		{"doctrinal from practice gets beneficial action", models.LevelPractice, models.TypeDoctrinal, models.StrategyBeneficialAction},
		{"inquiry starts with giving", models.LevelFoundational, models.TypeExploratoryInquiry, models.StrategyGiving},
		{"inquiry shifts to identification when exploring", models.LevelExploratory, models.TypeExploratoryInquiry, models.StrategyIdentification},
		{"inquiry stays identification when deep", models.LevelDeepUnderstanding, models.TypeExploratoryInquiry, models.StrategyIdentification},
		{"inquiry from practice gets beneficial action", models.LevelPractice, models.TypeExploratoryInquiry, models.StrategyBeneficialAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectStrategy(tt.level, tt.qtype)
			if err != nil {
				t.Fatalf("SelectStrategy(%s, %s): %v", tt.level, tt.qtype, err)
			}
			if got != tt.want {
				t.Errorf("SelectStrategy(%s, %s) = %s, want %s", tt.level, tt.qtype, got, tt.want)
			}
		})
	}
}

func TestSelectStrategyDeterministic(t *testing.T) {
	for _, level := range models.CognitiveLevels {
		for _, qtype := range models.QuestionTypes {
			first, err := SelectStrategy(level, qtype)
			if err != nil {
				t.Fatalf("SelectStrategy(%s, %s): %v", level, qtype, err)
			}
			for i := 0; i < 3; i++ {
				again, _ := SelectStrategy(level, qtype)
				if again != first {
					t.Errorf("SelectStrategy(%s, %s) not deterministic: %s then %s", level, qtype, first, again)
				}
			}
		}
	}
}

func TestSelectStrategyUnknownPair(t *testing.T) {
	_, err := SelectStrategy(models.CognitiveLevel("omniscient"), models.TypeDoctrinal)
	if !errors.Is(err, ErrStrategyTableGap) {
		t.Errorf("expected ErrStrategyTableGap, got %v", err)
	}
}
