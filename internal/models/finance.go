package models

import "time"

// FinanceSummary carries the two date-ranged sums the finance endpoints work
// with: income from paid student payments and expense from paid payroll.
type FinanceSummary struct {
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Income  int64     `json:"income"`
	Expense int64     `json:"expense"`
	Net     int64     `json:"net"`
}

// FinanceAnalysis is the free-text result of the generative-AI call together
// with the numbers that were fed into the prompt.
type FinanceAnalysis struct {
	Summary  FinanceSummary `json:"summary"`
	Analysis string         `json:"analysis"`
}
