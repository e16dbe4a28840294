package service

import (
	"context"

	"github.com/shopspring/decimal"
	agreementdomain "github.com/smallbiznis/cobranca/internal/agreement/domain"
	"github.com/smallbiznis/cobranca/internal/config"
	debtdomain "github.com/smallbiznis/cobranca/internal/debt/domain"
	prioritydomain "github.com/smallbiznis/cobranca/internal/priority/domain"
)

// aggregate collects the scoring facts of one unit. The unit must
// already be resolved; a missing unit aborts before any scoring.
func (s *Service) aggregate(ctx context.Context, cnpj string, cfg config.ScoringConfig) (prioritydomain.Facts, error) {
	facts := prioritydomain.Facts{
		UnitCNPJ:  cnpj,
		TotalOpen: decimal.Zero,
	}

	debts, err := s.debts.OpenByUnit(ctx, cnpj)
	if err != nil {
		return facts, err
	}

	now := s.clock.Now()
	types := make(map[string]struct{})
	for _, d := range debts {
		facts.TotalOpen = facts.TotalOpen.Add(d.Accrued(now, cfg.PenaltyPercent, cfg.MonthlyInterestPercent))
		if days := d.DaysOverdue(now); days > facts.MaxDaysOverdue {
			facts.MaxDaysOverdue = days
		}
		if _, ok := types[string(d.Type)]; !ok {
			types[string(d.Type)] = struct{}{}
			facts.DistinctTypes = append(facts.DistinctTypes, string(d.Type))
		}
		if d.Status == debtdomain.StatusNegotiating {
			facts.Negotiating = true
		}
	}
	facts.OpenDebtCount = len(debts)

	active, err := s.agreements.ActiveByUnit(ctx, cnpj)
	if err != nil {
		return facts, err
	}
	facts.HasActiveAgreement = active != nil &&
		(active.Status == agreementdomain.StatusAccepted || active.Status == agreementdomain.StatusFulfilling)

	facts.BrokenAgreements, err = s.agreements.CountBrokenByUnit(ctx, cnpj)
	if err != nil {
		return facts, err
	}

	facts.MissedMeetings, err = s.kanban.CountMissedMeetings(ctx, cnpj)
	if err != nil {
		return facts, err
	}

	facts.ExplicitRefusal, err = s.kanban.HasNegotiationRefusal(ctx, cnpj)
	if err != nil {
		return facts, err
	}

	return facts, nil
}
