package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/cobranca/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestValueComponentSaturatesAtThreshold(t *testing.T) {
	cfg := config.ScoringConfig{
		ValueWeight:           40,
		HighPriorityThreshold: 5000,
		StatusWeights:         map[string]int{},
		EscalationThresholds:  []int{5, 15, 30, 45, 60},
	}

	facts := Facts{TotalOpen: decimal.NewFromInt(10000)}
	assert.Equal(t, 40, ComputeScore(facts, cfg))

	facts.TotalOpen = decimal.NewFromInt(2500)
	assert.Equal(t, 20, ComputeScore(facts, cfg))
}

func TestComputeScoreAllComponents(t *testing.T) {
	cfg := config.DefaultScoringConfig()

	facts := Facts{
		TotalOpen:      decimal.NewFromFloat(10366.67),
		MaxDaysOverdue: 50,
		OpenDebtCount:  1,
		DistinctTypes:  []string{"royalty"},
	}

	// value 40 + time 50/90*30 = 16.67 + count 1/5*10 = 2
	// + type 10 + status inadimplente 10 = 78.67 → 79
	assert.Equal(t, 79, ComputeScore(facts, cfg))
}

func TestComputeScoreDeterministic(t *testing.T) {
	cfg := config.DefaultScoringConfig()
	facts := Facts{
		TotalOpen:      decimal.NewFromInt(7300),
		MaxDaysOverdue: 22,
		OpenDebtCount:  3,
		DistinctTypes:  []string{"royalty", "produto"},
		Negotiating:    true,
	}

	first := ComputeScore(facts, cfg)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ComputeScore(facts, cfg))
	}
}

func TestTypeComponentAverages(t *testing.T) {
	cfg := config.ScoringConfig{
		TypeWeights:          map[string]int{"royalty": 10, "produto": 5},
		StatusWeights:        map[string]int{},
		EscalationThresholds: []int{5, 15, 30, 45, 60},
	}
	facts := Facts{
		TotalOpen:     decimal.Zero,
		DistinctTypes: []string{"royalty", "produto"},
	}
	// (10+5)/2 = 7.5 → 8
	assert.Equal(t, 8, ComputeScore(facts, cfg))
}

func TestQualitativeStatusPrecedence(t *testing.T) {
	cfg := config.DefaultScoringConfig()

	assert.Equal(t, StatusAgreement, QualitativeStatus(Facts{HasActiveAgreement: true, Negotiating: true, MaxDaysOverdue: 99}, cfg))
	assert.Equal(t, StatusNegotiating, QualitativeStatus(Facts{Negotiating: true, MaxDaysOverdue: 99}, cfg))
	assert.Equal(t, StatusCritical, QualitativeStatus(Facts{MaxDaysOverdue: 61}, cfg))
	assert.Equal(t, StatusDelinquent, QualitativeStatus(Facts{MaxDaysOverdue: 60}, cfg))
}

func TestClassifyLevelBrackets(t *testing.T) {
	thresholds := []int{5, 15, 30, 45, 60}

	cases := map[int]int{
		0:   1,
		5:   1,
		6:   2,
		15:  2,
		16:  3,
		30:  3,
		31:  4,
		45:  4,
		46:  5,
		50:  5,
		60:  5,
		61:  5,
		365: 5,
	}
	for days, want := range cases {
		assert.Equalf(t, want, ClassifyLevel(days, thresholds), "days=%d", days)
	}
}

func TestClassifyLevelMonotonic(t *testing.T) {
	thresholds := []int{5, 15, 30, 45, 60}
	prev := 0
	for d := 0; d <= 120; d++ {
		level := ClassifyLevel(d, thresholds)
		assert.GreaterOrEqual(t, level, prev)
		prev = level
	}
}

func TestBuildQueueOrderAndStability(t *testing.T) {
	entries := []QueueEntry{
		{UnitCNPJ: "222", Score: 50, Level: 2},
		{UnitCNPJ: "111", Score: 80, Level: 1},
		{UnitCNPJ: "333", Score: 50, Level: 4},
		{UnitCNPJ: "000", Score: 50, Level: 2},
	}

	queue := BuildQueue(entries)
	got := make([]string, 0, len(queue))
	for _, e := range queue {
		got = append(got, e.UnitCNPJ)
	}
	assert.Equal(t, []string{"111", "333", "000", "222"}, got)

	// Idempotent and a permutation of the input.
	again := BuildQueue(queue)
	assert.Equal(t, queue, again)
	assert.Len(t, queue, len(entries))
	assert.Equal(t, "222", entries[0].UnitCNPJ) // input untouched
}

func TestActionForLevel(t *testing.T) {
	assert.Equal(t, "lembrete amigável", ActionForLevel(1))
	assert.Equal(t, "acionamento jurídico", ActionForLevel(5))
	assert.Empty(t, ActionForLevel(0))
}
