package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sekolahku/sekolahku-api/internal/models"
	appErrors "github.com/sekolahku/sekolahku-api/pkg/errors"
)

type financeIncomeRepository interface {
	SumPaidBetween(ctx context.Context, from, to time.Time) (int64, error)
}

type financeCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type textGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// FinanceService aggregates money movement across billing and payroll and
// feeds the numbers to a language model for a plain-text reading.
type FinanceService struct {
	payments  financeIncomeRepository
	payroll   financeIncomeRepository
	cache     financeCache
	generator textGenerator
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewFinanceService constructs the finance service. cache and generator may
// be nil; caching degrades to direct queries and analysis becomes
// unavailable.
func NewFinanceService(payments, payroll financeIncomeRepository, cache financeCache, generator textGenerator, cacheTTL time.Duration, logger *zap.Logger) *FinanceService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FinanceService{
		payments:  payments,
		payroll:   payroll,
		cache:     cache,
		generator: generator,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

func financeCacheKey(from, to time.Time) string {
	return fmt.Sprintf("finance:summary:%s:%s", from.Format("2006-01-02"), to.Format("2006-01-02"))
}

// Summary returns income and expense sums for the range, cached briefly.
func (s *FinanceService) Summary(ctx context.Context, from, to time.Time) (*models.FinanceSummary, error) {
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date range is inverted")
	}

	key := financeCacheKey(from, to)
	if s.cache != nil {
		var cached models.FinanceSummary
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	income, err := s.payments.SumPaidBetween(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum income")
	}
	expense, err := s.payroll.SumPaidBetween(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum expense")
	}

	summary := &models.FinanceSummary{
		From:    from,
		To:      to,
		Income:  income,
		Expense: expense,
		Net:     income - expense,
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summary, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache finance summary", zap.Error(err))
		}
	}
	return summary, nil
}

// Analyze runs the range sums through the language model and returns its raw
// text verdict alongside the numbers.
func (s *FinanceService) Analyze(ctx context.Context, from, to time.Time) (*models.FinanceAnalysis, error) {
	if s.generator == nil {
		return nil, appErrors.New("AI_UNAVAILABLE", 503, "financial analysis is not configured")
	}
	summary, err := s.Summary(ctx, from, to)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(
		"You are a financial assistant for a school administrator.\n"+
			"Period: %s to %s\n"+
			"Total income from student payments: %d\n"+
			"Total expense from payroll: %d\n"+
			"Net: %d\n\n"+
			"Give a short, plain-language assessment of this period's finances "+
			"and one or two practical suggestions.",
		summary.From.Format("2006-01-02"), summary.To.Format("2006-01-02"),
		summary.Income, summary.Expense, summary.Net)

	analysis, err := s.generator.GenerateText(ctx, prompt)
	if err != nil {
		s.logger.Error("finance analysis failed", zap.Error(err))
		return nil, appErrors.Wrap(err, "AI_ERROR", 502, "failed to generate analysis")
	}

	return &models.FinanceAnalysis{Summary: *summary, Analysis: analysis}, nil
}
