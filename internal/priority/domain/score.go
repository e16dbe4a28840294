package domain

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/cobranca/internal/config"
)

// Facts are the aggregated inputs of one scoring round for a unit.
type Facts struct {
	UnitCNPJ           string          `json:"unit_cnpj"`
	TotalOpen          decimal.Decimal `json:"total_open"`
	MaxDaysOverdue     int             `json:"max_days_overdue"`
	OpenDebtCount      int             `json:"open_debt_count"`
	DistinctTypes      []string        `json:"distinct_types"`
	BrokenAgreements   int64           `json:"broken_agreements"`
	MissedMeetings     int64           `json:"missed_meetings"`
	ExplicitRefusal    bool            `json:"explicit_refusal"`
	HasActiveAgreement bool            `json:"has_active_agreement"`
	Negotiating        bool            `json:"negotiating"`
}

// Qualitative collection statuses, keyed into ScoringConfig.StatusWeights.
const (
	StatusCritical    = "critico"
	StatusDelinquent  = "inadimplente"
	StatusNegotiating = "negociando"
	StatusAgreement   = "acordo"
)

// QualitativeStatus derives the unit's collection status. An active
// agreement wins over everything; an open negotiation over lateness.
func QualitativeStatus(f Facts, cfg config.ScoringConfig) string {
	switch {
	case f.HasActiveAgreement:
		return StatusAgreement
	case f.Negotiating:
		return StatusNegotiating
	case len(cfg.EscalationThresholds) > 0 &&
		f.MaxDaysOverdue > cfg.EscalationThresholds[len(cfg.EscalationThresholds)-1]:
		return StatusCritical
	}
	return StatusDelinquent
}

// Saturation denominators of the time and count components. The value
// component saturates at the configured high-priority threshold.
const (
	timeSaturationDays = 90
	countSaturation    = 5
)

// ComputeScore combines facts into the integer priority score. Each of
// the value, time and count components is capped at 100 times its
// weight fraction; the type component averages the per-type weights of
// the distinct open debt types; the status component is the configured
// weight of the qualitative status. Deterministic by construction.
func ComputeScore(f Facts, cfg config.ScoringConfig) int {
	var sum float64

	if cfg.HighPriorityThreshold > 0 {
		total, _ := f.TotalOpen.Float64()
		sum += capRatio(total/cfg.HighPriorityThreshold) * 100 * float64(cfg.ValueWeight) / 100
	}
	sum += capRatio(float64(f.MaxDaysOverdue)/timeSaturationDays) * 100 * float64(cfg.TimeWeight) / 100
	sum += capRatio(float64(f.OpenDebtCount)/countSaturation) * 100 * float64(cfg.CountWeight) / 100

	if len(f.DistinctTypes) > 0 {
		var typeSum float64
		for _, t := range f.DistinctTypes {
			typeSum += float64(cfg.TypeWeights[t])
		}
		sum += typeSum / float64(len(f.DistinctTypes))
	}

	sum += float64(cfg.StatusWeights[QualitativeStatus(f, cfg)])

	return int(math.Round(sum))
}

func capRatio(r float64) float64 {
	if r > 1 {
		return 1
	}
	if r < 0 {
		return 0
	}
	return r
}

// ClassifyLevel maps days overdue to the escalation level: the smallest
// i with days <= threshold[i-1], level 5 past the last threshold. With
// the default thresholds {5,15,30,45,60}, 50 days falls in (45,60] and
// classifies as level 5.
func ClassifyLevel(daysOverdue int, thresholds []int) int {
	for i, limit := range thresholds {
		if daysOverdue <= limit {
			return i + 1
		}
	}
	return MaxLevel
}

// BuildQueue sorts entries by score descending, level descending, then
// CNPJ ascending. Pure projection; the input slice is not mutated.
func BuildQueue(entries []QueueEntry) []QueueEntry {
	out := make([]QueueEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Level != out[j].Level {
			return out[i].Level > out[j].Level
		}
		return out[i].UnitCNPJ < out[j].UnitCNPJ
	})
	return out
}
