package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/omopkit/omopload/pkg/omopload"
)

// fakeDBConn implements omopload.DBConnection. Exec outcomes are scripted
// per statement via execErr; every executed statement is recorded.
type fakeDBConn struct {
	execSQL []string
	execErr func(sql string) error
}

func (c *fakeDBConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.execSQL = append(c.execSQL, sql)
	if c.execErr != nil {
		if err := c.execErr(sql); err != nil {
			return pgconn.CommandTag{}, err
		}
	}
	return pgconn.CommandTag{}, nil
}

func (c *fakeDBConn) QueryRow(ctx context.Context, sql string, args ...any) omopload.Row {
	return fakeRow{err: errors.New("not scripted")}
}

func (c *fakeDBConn) Acquire(ctx context.Context) (omopload.PooledConnection, error) {
	return nil, errors.New("not scripted")
}

type fakeRow struct{ err error }

func (r fakeRow) Scan(dest ...any) error { return r.err }

// fakeDBManager records the management operations in call order.
type fakeDBManager struct {
	dbExists     bool
	schemaExists bool
	existsErr    error

	calls []string
}

func (m *fakeDBManager) Exists(ctx context.Context, conn omopload.DBConnection, dbName string) (bool, error) {
	m.calls = append(m.calls, "Exists:"+dbName)
	return m.dbExists, m.existsErr
}

func (m *fakeDBManager) Create(ctx context.Context, conn omopload.DBConnection, dbName string) error {
	m.calls = append(m.calls, "Create:"+dbName)
	return nil
}

func (m *fakeDBManager) Drop(ctx context.Context, conn omopload.DBConnection, dbName string) error {
	m.calls = append(m.calls, "Drop:"+dbName)
	return nil
}

func (m *fakeDBManager) TerminateConnections(ctx context.Context, conn omopload.DBConnection, dbName string) error {
	m.calls = append(m.calls, "TerminateConnections:"+dbName)
	return nil
}

func (m *fakeDBManager) SchemaExists(ctx context.Context, conn omopload.DBConnection, schemaName string) (bool, error) {
	m.calls = append(m.calls, "SchemaExists:"+schemaName)
	return m.schemaExists, nil
}

func (m *fakeDBManager) CreateSchema(ctx context.Context, conn omopload.DBConnection, schemaName string) error {
	m.calls = append(m.calls, "CreateSchema:"+schemaName)
	return nil
}

func (m *fakeDBManager) DropSchema(ctx context.Context, conn omopload.DBConnection, schemaName string) error {
	m.calls = append(m.calls, "DropSchema:"+schemaName)
	return nil
}

// fakeApprover answers RequestApproval with a scripted verdict and records
// the target it was asked about.
type fakeApprover struct {
	approve bool
	err     error
	targets []string
}

func (a *fakeApprover) RequestApproval(ctx context.Context, target string) (bool, error) {
	a.targets = append(a.targets, target)
	return a.approve, a.err
}

type fakeExtractor struct {
	summary omopload.ExtractSummary
	err     error
	calls   int
}

func (e *fakeExtractor) Extract(ctx context.Context, stagingPath string) (omopload.ExtractSummary, error) {
	e.calls++
	return e.summary, e.err
}

type fakeFetcher struct {
	summary omopload.FetchSummary
	err     error
	calls   int
}

func (f *fakeFetcher) Fetch(ctx context.Context, stagingPath string, datasets []string) (omopload.FetchSummary, error) {
	f.calls++
	return f.summary, f.err
}

// fakeSessionPreparer fails session preparation with a scripted error. Unit
// tests cannot mint a real *omopload.Session (it requires a live pool), so
// pipeline tests end at the session boundary; the stages beyond it carry
// their own package tests.
type fakeSessionPreparer struct {
	err   error
	calls int
}

func (p *fakeSessionPreparer) PrepareSession(ctx context.Context, connConfig *omopload.ConnectionConfig, stagingPath string, datasets []string, verbose bool) (*omopload.Session, error) {
	p.calls++
	return nil, p.err
}

type fakeLoader struct{}

func (l *fakeLoader) LoadTables(ctx context.Context, conn *pgxpool.Conn, schemaName string, scan omopload.ScanResult) (*omopload.LoadReport, error) {
	return &omopload.LoadReport{}, nil
}

type fakeValidator struct{}

func (v *fakeValidator) Validate(ctx context.Context, conn *pgxpool.Conn, schemaName string, applied *omopload.AppliedSchema) (*omopload.ValidationReport, error) {
	return &omopload.ValidationReport{}, nil
}

type fakeScanner struct {
	result omopload.ScanResult
	err    error
}

func (s *fakeScanner) ScanStaging(stagingPath string, datasets []string) (omopload.ScanResult, error) {
	return s.result, s.err
}

func nopConnectorFactory(cfg *omopload.ConnectionConfig) (omopload.Connector, error) {
	return nil, errors.New("connector factory not scripted")
}
