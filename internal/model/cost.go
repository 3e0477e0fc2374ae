package model

import "time"

// CostRecord is one accrued cost line for an environment over a period.
type CostRecord struct {
	ID            string    `json:"id"`
	EnvironmentID string    `json:"environment_id"`
	Service       string    `json:"service"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	PeriodStart   time.Time `json:"period_start"`
	PeriodEnd     time.Time `json:"period_end"`
}

// CostSummary aggregates cost records per environment.
type CostSummary struct {
	EnvironmentID   string  `json:"environment_id"`
	EnvironmentName string  `json:"environment_name,omitempty"`
	Total           float64 `json:"total"`
	Currency        string  `json:"currency"`
	Records         int     `json:"records"`
}
