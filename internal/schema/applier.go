package schema

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/omopkit/omopload/internal/checksum"
	"github.com/omopkit/omopload/internal/files/filesystem"
	"github.com/omopkit/omopload/pkg/omopload"
)

// Applier renders DDL assets for a target namespace and executes them on
// the session connection.
type Applier struct {
	version Version
	assets  []omopload.SchemaAsset
	calc    checksum.SHA256
	logger  omopload.Logger
}

// Compile-time interface check
var _ omopload.SchemaApplier = (*Applier)(nil)

// NewApplier creates an applier over pre-loaded assets.
// Panics if logger is nil.
func NewApplier(assets []omopload.SchemaAsset, version Version, logger omopload.Logger) *Applier {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Applier{
		version: version,
		assets:  assets,
		calc:    checksum.New(),
		logger:  logger,
	}
}

// NewEmbeddedApplier creates an applier over the embedded assets for the
// given CDM version (empty selects the latest).
func NewEmbeddedApplier(version string, logger omopload.Logger) (*Applier, error) {
	assets, v, err := Load(version)
	if err != nil {
		return nil, err
	}
	return NewApplier(assets, v, logger), nil
}

// NewDirApplier creates an applier over external DDL files, the --ddl-dir
// override. The reported version is the directory path since the files are
// not under our control.
func NewDirApplier(fsProvider filesystem.FileSystemProvider, dir string, logger omopload.Logger) (*Applier, error) {
	assets, err := LoadDir(fsProvider, dir)
	if err != nil {
		return nil, err
	}
	return NewApplier(assets, Version(dir), logger), nil
}

// Sources returns the raw pre-render assets.
func (a *Applier) Sources() []omopload.SchemaAsset {
	return a.assets
}

// Apply renders every asset for the target namespace and executes the
// concatenated script on the session connection. Execution errors are
// attributed back to asset and line where PostgreSQL reports a position.
func (a *Applier) Apply(ctx context.Context, conn *pgxpool.Conn, schemaName string, parameters map[string]string) (*omopload.AppliedSchema, error) {
	names := make([]string, len(a.assets))
	rendered := make([]string, len(a.assets))
	var raw strings.Builder

	for i, asset := range a.assets {
		out, err := Render(asset.Name, asset.Content, schemaName, parameters)
		if err != nil {
			return nil, fmt.Errorf("rendering %s: %w", asset.Name, err)
		}
		names[i] = asset.Name
		rendered[i] = out
		raw.WriteString(asset.Content)
		a.logger.Verbose("Rendered %s (%d bytes)", asset.Name, len(out))
	}

	script, sm := concatenate(names, rendered)

	a.logger.Info("Applying CDM %s DDL to schema %q (%d assets)", a.version, schemaName, len(a.assets))
	if _, err := conn.Exec(ctx, script); err != nil {
		return nil, fmt.Errorf("%w: %w", omopload.ErrExecutionFailed, attributeError(err, script, sm))
	}

	rawBytes := []byte(raw.String())
	return &omopload.AppliedSchema{
		Version:            string(a.version),
		Assets:             a.assets,
		ChecksumRaw:        a.calc.CalculateRaw(rawBytes),
		ChecksumNormalized: a.calc.CalculateNormalized(rawBytes),
	}, nil
}

// attributeError resolves a PostgreSQL error position back to the asset and
// line it came from. Position is a 1-based byte offset into the script;
// syntax errors also carry a "LINE X:" marker in the message.
func attributeError(err error, script string, sm *SourceMap) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	line := 0
	if pgErr.Position > 0 && int(pgErr.Position) <= len(script) {
		line = 1 + strings.Count(script[:pgErr.Position-1], "\n")
	} else {
		line = extractLineFromMessage(pgErr.Message)
	}
	if line == 0 {
		return err
	}

	asset, localLine, found := sm.Resolve(line)
	if !found {
		return err
	}
	return fmt.Errorf("%w\n  → %s:%d", err, asset, localLine)
}

// extractLineFromMessage parses the "LINE X:" marker PostgreSQL embeds in
// syntax error messages.
func extractLineFromMessage(message string) int {
	idx := strings.Index(message, "LINE ")
	if idx == -1 {
		return 0
	}
	remaining := message[idx+5:]
	colonIdx := strings.Index(remaining, ":")
	if colonIdx == -1 {
		return 0
	}
	line, err := strconv.Atoi(remaining[:colonIdx])
	if err != nil {
		return 0
	}
	return line
}
