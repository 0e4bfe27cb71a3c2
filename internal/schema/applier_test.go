package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/omopkit/omopload/internal/logging"
)

func TestNewEmbeddedApplier(t *testing.T) {
	applier, err := NewEmbeddedApplier("", logging.NewConsoleLogger(false))
	if err != nil {
		t.Fatalf("NewEmbeddedApplier failed: %v", err)
	}

	sources := applier.Sources()
	if len(sources) != 3 {
		t.Fatalf("sources = %d, want 3", len(sources))
	}
	// Sources are pre-render: the placeholder must still be present
	for _, asset := range sources {
		if !strings.Contains(asset.Content, SchemaPlaceholder) {
			t.Errorf("%s lost the schema placeholder", asset.Name)
		}
	}
}

func TestNewEmbeddedApplier_UnknownVersion(t *testing.T) {
	if _, err := NewEmbeddedApplier("0.1", logging.NewConsoleLogger(false)); err == nil {
		t.Fatal("expected error for unknown version")
	}
}

func TestNewApplier_NilLoggerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil logger")
		}
	}()
	NewApplier(nil, V531, nil)
}

func TestAttributeError_UsesPosition(t *testing.T) {
	script := "CREATE TABLE cdm.a ();\nCREATE TABLE cdm.b ();\nBROKEN STATEMENT;\n"
	sm := &SourceMap{ranges: []sourceRange{
		{start: 1, end: 2, asset: "tables.sql"},
		{start: 3, end: 3, asset: "extra.sql"},
	}}

	pgErr := &pgconn.PgError{
		Message:  "syntax error",
		Position: int32(strings.Index(script, "BROKEN") + 1),
	}

	attributed := attributeError(pgErr, script, sm)
	if !strings.Contains(attributed.Error(), "extra.sql:1") {
		t.Errorf("error not attributed to asset: %v", attributed)
	}
	var unwrapped *pgconn.PgError
	if !errors.As(attributed, &unwrapped) {
		t.Errorf("original pg error lost: %v", attributed)
	}
}

func TestAttributeError_NonPgErrorPassesThrough(t *testing.T) {
	plain := errors.New("connection reset")
	if got := attributeError(plain, "script", &SourceMap{}); got != plain {
		t.Errorf("non-pg error was modified: %v", got)
	}
}
