package handler

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/edvin/wppanel/internal/model"
	"github.com/edvin/wppanel/internal/sysstats"
)

// handlerMockDB implements core.DB for handler tests.
type handlerMockDB struct {
	mock.Mock
}

func (m *handlerMockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *handlerMockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *handlerMockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

type stubRow struct {
	scan func(dest ...any) error
}

func (r stubRow) Scan(dest ...any) error { return r.scan(dest...) }

func noRows() stubRow {
	return stubRow{scan: func(...any) error { return pgx.ErrNoRows }}
}

func siteRow(s model.Site) stubRow {
	return stubRow{scan: scanSite(s)}
}

func scanSite(s model.Site) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = s.ID
		*(dest[1].(*string)) = s.Domain
		*(dest[2].(*string)) = s.WPVersion
		*(dest[3].(*string)) = s.DBName
		*(dest[4].(*string)) = s.DBUser
		*(dest[5].(*string)) = s.DBPassword
		*(dest[6].(*string)) = s.Status
		*(dest[7].(*bool)) = s.SSLEnabled
		*(dest[8].(*time.Time)) = s.CreatedAt
		*(dest[9].(*time.Time)) = s.UpdatedAt
		return nil
	}
}

// stubRows implements pgx.Rows over a list of scan functions.
type stubRows struct {
	i     int
	scans []func(dest ...any) error
}

func (r *stubRows) Next() bool { return r.i < len(r.scans) }
func (r *stubRows) Scan(dest ...any) error {
	fn := r.scans[r.i]
	r.i++
	return fn(dest...)
}
func (r *stubRows) Err() error                                   { return nil }
func (r *stubRows) Close()                                       {}
func (r *stubRows) CommandTag() pgconn.CommandTag                 { return pgconn.CommandTag{} }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) RawValues() [][]byte                          { return nil }
func (r *stubRows) Values() ([]any, error)                       { return nil, nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }

type mockCerts struct {
	mock.Mock
}

func (m *mockCerts) Issue(ctx context.Context, domain string) error {
	return m.Called(ctx, domain).Error(0)
}

func (m *mockCerts) Delete(ctx context.Context, domain string) error {
	return m.Called(ctx, domain).Error(0)
}

func (m *mockCerts) Renew(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockCerts) Certificates(ctx context.Context) ([]model.Certificate, string, error) {
	args := m.Called(ctx)
	certs, _ := args.Get(0).([]model.Certificate)
	return certs, args.String(1), args.Error(2)
}

type mockCollector struct {
	mock.Mock
}

func (m *mockCollector) Collect(ctx context.Context) (*sysstats.System, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*sysstats.System)
	return s, args.Error(1)
}
