package core

import (
	"context"
	"fmt"
	"time"

	"github.com/SalimBinYousuf1/openai-api-platform/internal/model"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/platform"
)

// UsageService appends to and aggregates the usage ledger. Aggregate reads
// go through a short-TTL cache since the dashboard polls them.
type UsageService struct {
	db    DB
	cache *statsCache
}

// NewUsageService creates a new UsageService with the given cache TTL.
func NewUsageService(db DB, cacheTTL time.Duration) *UsageService {
	return &UsageService{db: db, cache: newStatsCache(cacheTTL)}
}

// Insert appends one ledger row. Rows are immutable once written.
func (s *UsageService) Insert(ctx context.Context, u *model.Usage) error {
	if u.ID == "" {
		u.ID = platform.NewID()
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO api_usage (id, api_key_id, endpoint, model, prompt_tokens, completion_tokens,
		                        total_tokens, cost_usd, latency_ms, status_code, client_ip, user_agent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		u.ID, u.APIKeyID, u.Endpoint, u.Model, u.PromptTokens, u.CompletionTokens,
		u.TotalTokens, u.CostUSD, u.LatencyMs, u.StatusCode, u.ClientIP, u.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("insert usage: %w", err)
	}
	return nil
}

// ListByKey returns the most recent ledger rows for one key. History remains
// queryable after the key is deactivated.
func (s *UsageService) ListByKey(ctx context.Context, apiKeyID string, limit int) ([]model.Usage, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, api_key_id, endpoint, COALESCE(model, ''), prompt_tokens, completion_tokens,
		        total_tokens, cost_usd, latency_ms, status_code, COALESCE(client_ip, ''),
		        COALESCE(user_agent, ''), created_at
		 FROM api_usage WHERE api_key_id = $1 ORDER BY created_at DESC LIMIT $2`,
		apiKeyID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list usage: %w", err)
	}
	defer rows.Close()

	var usages []model.Usage
	for rows.Next() {
		var u model.Usage
		if err := rows.Scan(&u.ID, &u.APIKeyID, &u.Endpoint, &u.Model, &u.PromptTokens,
			&u.CompletionTokens, &u.TotalTokens, &u.CostUSD, &u.LatencyMs, &u.StatusCode,
			&u.ClientIP, &u.UserAgent, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		usages = append(usages, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage: %w", err)
	}
	return usages, nil
}

// Overview holds the aggregate counters shown on the dashboard landing page.
type Overview struct {
	TotalRequests int64           `json:"total_requests"`
	TotalTokens   int64           `json:"total_tokens"`
	TotalCostUSD  float64         `json:"total_cost_usd"`
	AvgLatencyMs  float64         `json:"avg_latency_ms"`
	ErrorRate     float64         `json:"error_rate"`
	ByEndpoint    []EndpointCount `json:"by_endpoint"`
	ByModel       []ModelUsage    `json:"by_model"`
}

// EndpointCount holds a request count grouped by endpoint.
type EndpointCount struct {
	Endpoint string `json:"endpoint"`
	Count    int64  `json:"count"`
}

// ModelUsage holds token and cost rollups grouped by model.
type ModelUsage struct {
	Model    string  `json:"model"`
	Requests int64   `json:"requests"`
	Tokens   int64   `json:"tokens"`
	CostUSD  float64 `json:"cost_usd"`
}

// UsagePoint is one day in a period report.
type UsagePoint struct {
	Day      time.Time `json:"day"`
	Requests int64     `json:"requests"`
	Tokens   int64     `json:"tokens"`
	CostUSD  float64   `json:"cost_usd"`
}

// Report is a date-bounded usage rollup with a daily series.
type Report struct {
	Period        string       `json:"period"`
	Start         time.Time    `json:"start"`
	End           time.Time    `json:"end"`
	TotalRequests int64        `json:"total_requests"`
	TotalTokens   int64        `json:"total_tokens"`
	TotalCostUSD  float64      `json:"total_cost_usd"`
	Series        []UsagePoint `json:"series"`
}

// PeriodStart resolves a period name to the window start relative to now.
func PeriodStart(period string, now time.Time) (time.Time, error) {
	switch period {
	case "day":
		return now.AddDate(0, 0, -1), nil
	case "week":
		return now.AddDate(0, 0, -7), nil
	case "month":
		return now.AddDate(0, -1, 0), nil
	case "year":
		return now.AddDate(-1, 0, 0), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
}

// GetOverview computes the dashboard overview for a user's keys.
func (s *UsageService) GetOverview(ctx context.Context, userID string) (*Overview, error) {
	cacheKey := "overview:" + userID
	if cached, ok := s.cache.get(cacheKey); ok {
		return cached.(*Overview), nil
	}

	ov := &Overview{}
	err := s.db.QueryRow(ctx,
		`SELECT count(*), COALESCE(sum(u.total_tokens), 0), COALESCE(sum(u.cost_usd), 0),
		        COALESCE(avg(u.latency_ms), 0),
		        COALESCE(avg(CASE WHEN u.status_code >= 400 THEN 1.0 ELSE 0.0 END), 0)
		 FROM api_usage u JOIN api_keys k ON k.id = u.api_key_id
		 WHERE k.user_id = $1`, userID,
	).Scan(&ov.TotalRequests, &ov.TotalTokens, &ov.TotalCostUSD, &ov.AvgLatencyMs, &ov.ErrorRate)
	if err != nil {
		return nil, fmt.Errorf("overview totals: %w", err)
	}

	epRows, err := s.db.Query(ctx,
		`SELECT u.endpoint, count(*)
		 FROM api_usage u JOIN api_keys k ON k.id = u.api_key_id
		 WHERE k.user_id = $1 GROUP BY u.endpoint ORDER BY count(*) DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("overview by endpoint: %w", err)
	}
	defer epRows.Close()

	for epRows.Next() {
		var ec EndpointCount
		if err := epRows.Scan(&ec.Endpoint, &ec.Count); err != nil {
			return nil, fmt.Errorf("scan endpoint count: %w", err)
		}
		ov.ByEndpoint = append(ov.ByEndpoint, ec)
	}
	if err := epRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate endpoint counts: %w", err)
	}

	mRows, err := s.db.Query(ctx,
		`SELECT COALESCE(u.model, ''), count(*), COALESCE(sum(u.total_tokens), 0), COALESCE(sum(u.cost_usd), 0)
		 FROM api_usage u JOIN api_keys k ON k.id = u.api_key_id
		 WHERE k.user_id = $1 AND u.model IS NOT NULL
		 GROUP BY u.model ORDER BY count(*) DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("overview by model: %w", err)
	}
	defer mRows.Close()

	for mRows.Next() {
		var mu ModelUsage
		if err := mRows.Scan(&mu.Model, &mu.Requests, &mu.Tokens, &mu.CostUSD); err != nil {
			return nil, fmt.Errorf("scan model usage: %w", err)
		}
		ov.ByModel = append(ov.ByModel, mu)
	}
	if err := mRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate model usage: %w", err)
	}

	s.cache.set(cacheKey, ov)
	return ov, nil
}

// GetReport computes a date-bounded usage report for a user's keys.
func (s *UsageService) GetReport(ctx context.Context, userID, period string) (*Report, error) {
	now := time.Now().UTC()
	start, err := PeriodStart(period, now)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("report:%s:%s", userID, period)
	if cached, ok := s.cache.get(cacheKey); ok {
		return cached.(*Report), nil
	}

	report := &Report{Period: period, Start: start, End: now}
	err = s.db.QueryRow(ctx,
		`SELECT count(*), COALESCE(sum(u.total_tokens), 0), COALESCE(sum(u.cost_usd), 0)
		 FROM api_usage u JOIN api_keys k ON k.id = u.api_key_id
		 WHERE k.user_id = $1 AND u.created_at >= $2`, userID, start,
	).Scan(&report.TotalRequests, &report.TotalTokens, &report.TotalCostUSD)
	if err != nil {
		return nil, fmt.Errorf("report totals: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT date_trunc('day', u.created_at), count(*),
		        COALESCE(sum(u.total_tokens), 0), COALESCE(sum(u.cost_usd), 0)
		 FROM api_usage u JOIN api_keys k ON k.id = u.api_key_id
		 WHERE k.user_id = $1 AND u.created_at >= $2
		 GROUP BY 1 ORDER BY 1`, userID, start,
	)
	if err != nil {
		return nil, fmt.Errorf("report series: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p UsagePoint
		if err := rows.Scan(&p.Day, &p.Requests, &p.Tokens, &p.CostUSD); err != nil {
			return nil, fmt.Errorf("scan usage point: %w", err)
		}
		report.Series = append(report.Series, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage points: %w", err)
	}

	s.cache.set(cacheKey, report)
	return report, nil
}
