package core

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"

	"github.com/edvin/wppanel/internal/dbadmin"
	"github.com/edvin/wppanel/internal/model"
	"github.com/edvin/wppanel/internal/platform"
	"github.com/edvin/wppanel/internal/sysstats"
	"github.com/edvin/wppanel/internal/wordpress"
)

// ---------- Mock DB ----------

// mockDB implements the DB interface for testing.
type mockDB struct {
	mock.Mock
}

func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// sqlContains matches a query string containing sub.
func sqlContains(sub string) any {
	return mock.MatchedBy(func(q string) bool { return strings.Contains(q, sub) })
}

func execTag(tag string) pgconn.CommandTag {
	return pgconn.NewCommandTag(tag)
}

// ---------- Mock Row ----------

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	return m.scanFunc(dest...)
}

func errRow(err error) *mockRow {
	return &mockRow{scanFunc: func(...any) error { return err }}
}

func boolRow(v bool) *mockRow {
	return &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*bool)) = v
		return nil
	}}
}

func intRow(v int) *mockRow {
	return &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int)) = v
		return nil
	}}
}

// ---------- Mock Rows ----------

// mockRows implements pgx.Rows for testing.
// It iterates through a list of scan functions, one per row.
type mockRows struct {
	callIndex int
	scanFuncs []func(dest ...any) error
	err       error
}

func newMockRows(scanFuncs ...func(dest ...any) error) *mockRows {
	return &mockRows{scanFuncs: scanFuncs}
}

// newEmptyMockRows returns a mockRows that yields zero rows.
func newEmptyMockRows() *mockRows {
	return &mockRows{}
}

func (m *mockRows) Next() bool {
	return m.callIndex < len(m.scanFuncs)
}

func (m *mockRows) Scan(dest ...any) error {
	if m.callIndex < len(m.scanFuncs) {
		fn := m.scanFuncs[m.callIndex]
		m.callIndex++
		return fn(dest...)
	}
	return nil
}

func (m *mockRows) Err() error                                   { return m.err }
func (m *mockRows) Close()                                       {}
func (m *mockRows) CommandTag() pgconn.CommandTag                 { return pgconn.CommandTag{} }
func (m *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (m *mockRows) RawValues() [][]byte                          { return nil }
func (m *mockRows) Values() ([]any, error)                       { return nil, nil }
func (m *mockRows) Conn() *pgx.Conn                              { return nil }

// ---------- Site fixtures ----------

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testSite(id, domain, status string, ssl bool) model.Site {
	return model.Site{
		ID:         id,
		Domain:     domain,
		WPVersion:  "6.5.2",
		DBName:     platform.DatabaseName(domain),
		DBUser:     platform.DatabaseUser(domain),
		DBPassword: "secret",
		Status:     status,
		SSLEnabled: ssl,
		CreatedAt:  testTime,
		UpdatedAt:  testTime,
	}
}

// scanSiteInto fills the column destinations of a site row.
func scanSiteInto(s model.Site) func(dest ...any) error {
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

func siteRow(s model.Site) *mockRow {
	return &mockRow{scanFunc: scanSiteInto(s)}
}

// ---------- Mock collaborators ----------

type mockFiles struct {
	mock.Mock
}

func (m *mockFiles) SitePath(domain string) (string, error) {
	args := m.Called(domain)
	return args.String(0), args.Error(1)
}

func (m *mockFiles) Stage(ctx context.Context, domain string) (*wordpress.Staging, error) {
	args := m.Called(ctx, domain)
	st, _ := args.Get(0).(*wordpress.Staging)
	return st, args.Error(1)
}

func (m *mockFiles) Download(ctx context.Context, st *wordpress.Staging) error {
	return m.Called(ctx, st).Error(0)
}

func (m *mockFiles) Configure(st *wordpress.Staging, creds wordpress.Credentials) error {
	return m.Called(st, creds).Error(0)
}

func (m *mockFiles) Secure(st *wordpress.Staging) error {
	return m.Called(st).Error(0)
}

func (m *mockFiles) Publish(st *wordpress.Staging) error {
	return m.Called(st).Error(0)
}

func (m *mockFiles) Discard(st *wordpress.Staging) error {
	return m.Called(st).Error(0)
}

func (m *mockFiles) Remove(domain string) error {
	return m.Called(domain).Error(0)
}

func (m *mockFiles) DiskUsage(domain string) (int64, error) {
	args := m.Called(domain)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockFiles) InstalledVersion(domain string) string {
	return m.Called(domain).String(0)
}

func (m *mockFiles) Update(ctx context.Context, domain string) (*wordpress.UpdateResult, error) {
	args := m.Called(ctx, domain)
	res, _ := args.Get(0).(*wordpress.UpdateResult)
	return res, args.Error(1)
}

type mockProvisioner struct {
	mock.Mock
}

func (m *mockProvisioner) Provision(ctx context.Context, dbName, dbUser, dbPassword string) (*dbadmin.Provisioned, error) {
	args := m.Called(ctx, dbName, dbUser, dbPassword)
	res, _ := args.Get(0).(*dbadmin.Provisioned)
	return res, args.Error(1)
}

func (m *mockProvisioner) Undo(ctx context.Context, res *dbadmin.Provisioned) error {
	return m.Called(ctx, res).Error(0)
}

func (m *mockProvisioner) Drop(ctx context.Context, dbName, dbUser string) error {
	return m.Called(ctx, dbName, dbUser).Error(0)
}

type mockDumper struct {
	mock.Mock
}

func (m *mockDumper) Dump(ctx context.Context, dbName, destPath string) error {
	return m.Called(ctx, dbName, destPath).Error(0)
}

func (m *mockDumper) Restore(ctx context.Context, dbName, srcPath string) error {
	return m.Called(ctx, dbName, srcPath).Error(0)
}

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

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) Upload(ctx context.Context, domain string, paths ...string) error {
	return m.Called(ctx, domain, paths).Error(0)
}

type mockCollector struct {
	mock.Mock
}

func (m *mockCollector) Collect(ctx context.Context) (*sysstats.System, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*sysstats.System)
	return s, args.Error(1)
}

// ---------- Site service harness ----------

type siteHarness struct {
	db    *mockDB
	files *mockFiles
	prov  *mockProvisioner
	certs *mockCerts
	svc   *SiteService
}

func newSiteHarness(defaults map[string]string) *siteHarness {
	h := &siteHarness{
		db:    &mockDB{},
		files: &mockFiles{},
		prov:  &mockProvisioner{},
		certs: &mockCerts{},
	}
	settings := NewSettingsService(h.db, defaults)
	h.svc = NewSiteService(h.db, zerolog.Nop(), h.files, h.prov, h.certs, settings, newDomainLocks())
	return h
}

func (h *siteHarness) assertExpectations(t mock.TestingT) {
	h.db.AssertExpectations(t)
	h.files.AssertExpectations(t)
	h.prov.AssertExpectations(t)
	h.certs.AssertExpectations(t)
}
