package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sekolahku/sekolahku-api/internal/models"
	appErrors "github.com/sekolahku/sekolahku-api/pkg/errors"
)

type mockIncomeRepo struct {
	sum   int64
	calls int
	err   error
}

func (m *mockIncomeRepo) SumPaidBetween(ctx context.Context, from, to time.Time) (int64, error) {
	m.calls++
	return m.sum, m.err
}

type mockFinanceCache struct {
	entries map[string]models.FinanceSummary
	sets    int
}

func (m *mockFinanceCache) Get(ctx context.Context, key string, dest interface{}) error {
	if entry, ok := m.entries[key]; ok {
		if out, ok := dest.(*models.FinanceSummary); ok {
			*out = entry
			return nil
		}
	}
	return appErrors.ErrCacheMiss
}

func (m *mockFinanceCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string]models.FinanceSummary)
	}
	if summary, ok := value.(*models.FinanceSummary); ok {
		m.entries[key] = *summary
	}
	m.sets++
	return nil
}

type mockGenerator struct {
	lastPrompt string
	reply      string
	err        error
}

func (m *mockGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.lastPrompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func financeRange() (time.Time, time.Time) {
	from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, -1)
}

func TestFinanceSummary(t *testing.T) {
	payments := &mockIncomeRepo{sum: 9000000}
	payroll := &mockIncomeRepo{sum: 6500000}
	svc := NewFinanceService(payments, payroll, nil, nil, time.Minute, zap.NewNop())

	from, to := financeRange()
	summary, err := svc.Summary(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(9000000), summary.Income)
	assert.Equal(t, int64(6500000), summary.Expense)
	assert.Equal(t, int64(2500000), summary.Net)
}

func TestFinanceSummaryCached(t *testing.T) {
	payments := &mockIncomeRepo{sum: 100}
	payroll := &mockIncomeRepo{sum: 50}
	cache := &mockFinanceCache{}
	svc := NewFinanceService(payments, payroll, cache, nil, time.Minute, zap.NewNop())

	from, to := financeRange()
	_, err := svc.Summary(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, payments.calls)
	assert.Equal(t, 1, cache.sets)

	// Second call within the TTL never hits the repositories.
	_, err = svc.Summary(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, payments.calls)
	assert.Equal(t, 1, payroll.calls)
}

func TestFinanceSummaryInvertedRange(t *testing.T) {
	svc := NewFinanceService(&mockIncomeRepo{}, &mockIncomeRepo{}, nil, nil, time.Minute, zap.NewNop())

	from, to := financeRange()
	_, err := svc.Summary(context.Background(), to, from)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFinanceAnalyzePromptCarriesSums(t *testing.T) {
	payments := &mockIncomeRepo{sum: 9000000}
	payroll := &mockIncomeRepo{sum: 6500000}
	generator := &mockGenerator{reply: "Healthy surplus this period."}
	svc := NewFinanceService(payments, payroll, nil, generator, time.Minute, zap.NewNop())

	from, to := financeRange()
	analysis, err := svc.Analyze(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, "Healthy surplus this period.", analysis.Analysis)
	assert.Contains(t, generator.lastPrompt, "9000000")
	assert.Contains(t, generator.lastPrompt, "6500000")
	assert.Contains(t, generator.lastPrompt, "2500000")
	assert.Contains(t, generator.lastPrompt, "2025-05-01")
}

func TestFinanceAnalyzeUnconfigured(t *testing.T) {
	svc := NewFinanceService(&mockIncomeRepo{}, &mockIncomeRepo{}, nil, nil, time.Minute, zap.NewNop())

	from, to := financeRange()
	_, err := svc.Analyze(context.Background(), from, to)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "AI_UNAVAILABLE", appErr.Code)
	assert.Equal(t, 503, appErr.Status)
}

func TestFinanceAnalyzeGeneratorFailure(t *testing.T) {
	generator := &mockGenerator{err: errors.New("upstream timeout")}
	svc := NewFinanceService(&mockIncomeRepo{}, &mockIncomeRepo{}, nil, generator, time.Minute, zap.NewNop())

	from, to := financeRange()
	_, err := svc.Analyze(context.Background(), from, to)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "AI_ERROR", appErr.Code)
	assert.Equal(t, 502, appErr.Status)
}
