package handler

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/SalimBinYousuf1/openai-api-platform/internal/model"
)

// stubDB is a minimal core.DB returning canned rows.
type stubDB struct {
	queryRow func(sql string, args ...any) pgx.Row
	query    func(sql string, args ...any) (pgx.Rows, error)
	exec     func(sql string, args ...any) (pgconn.CommandTag, error)
}

func (d *stubDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if d.exec != nil {
		return d.exec(sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

func (d *stubDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	return d.query(sql, args...)
}

func (d *stubDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	return d.queryRow(sql, args...)
}

type stubRow struct {
	scan func(dest ...any) error
}

func (r *stubRow) Scan(dest ...any) error { return r.scan(dest...) }

type stubRows struct {
	scans []func(dest ...any) error
	pos   int
}

func (r *stubRows) Next() bool { return r.pos < len(r.scans) }

func (r *stubRows) Scan(dest ...any) error {
	fn := r.scans[r.pos]
	r.pos++
	return fn(dest...)
}

func (r *stubRows) Err() error                                   { return nil }
func (r *stubRows) Close()                                       {}
func (r *stubRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) RawValues() [][]byte                          { return nil }
func (r *stubRows) Values() ([]any, error)                       { return nil, nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }

// scanAPIKey fills Scan destinations in api_keys column order.
func scanAPIKey(k model.APIKey) func(dest ...any) error {
	return func(dest ...any) error {
		*dest[0].(*string) = k.ID
		*dest[1].(*string) = k.UserID
		*dest[2].(*string) = k.Name
		*dest[3].(*string) = k.KeyHash
		*dest[4].(*string) = k.KeyPrefix
		*dest[5].(*int) = k.RateLimit
		*dest[6].(*bool) = k.IsActive
		*dest[7].(**time.Time) = k.LastUsedAt
		*dest[8].(*time.Time) = k.CreatedAt
		return nil
	}
}

// scanUsage fills Scan destinations in api_usage column order.
func scanUsage(u model.Usage) func(dest ...any) error {
	return func(dest ...any) error {
		*dest[0].(*string) = u.ID
		*dest[1].(*string) = u.APIKeyID
		*dest[2].(*string) = u.Endpoint
		*dest[3].(*string) = u.Model
		*dest[4].(*int) = u.PromptTokens
		*dest[5].(*int) = u.CompletionTokens
		*dest[6].(*int) = u.TotalTokens
		*dest[7].(*float64) = u.CostUSD
		*dest[8].(*int) = u.LatencyMs
		*dest[9].(*int) = u.StatusCode
		*dest[10].(*string) = u.ClientIP
		*dest[11].(*string) = u.UserAgent
		*dest[12].(*time.Time) = u.CreatedAt
		return nil
	}
}
