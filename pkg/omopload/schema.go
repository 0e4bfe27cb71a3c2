package omopload

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SchemaAsset is one DDL source file, pre-render: placeholders intact.
type SchemaAsset struct {
	// Name is the asset file name, e.g. "omop_cdm_ddl.sql"
	Name string

	// Content is the raw template text
	Content string
}

// AppliedSchema describes the DDL that was rendered and executed.
type AppliedSchema struct {
	// Version is the CDM version the assets belong to, e.g. "5.3.1"
	Version string

	// Assets are the raw template sources in application order
	Assets []SchemaAsset

	// ChecksumRaw is the SHA-256 of the concatenated raw templates
	ChecksumRaw string

	// ChecksumNormalized is the SHA-256 of the normalized (comment-stripped,
	// case-folded, whitespace-collapsed) concatenation
	ChecksumNormalized string
}

// SchemaApplier renders the DDL template for a target namespace and executes it.
type SchemaApplier interface {
	// Apply substitutes the schema placeholder (and any extra parameters) into
	// every asset and executes them in order on the session connection.
	Apply(ctx context.Context, conn *pgxpool.Conn, schemaName string, parameters map[string]string) (*AppliedSchema, error)

	// Sources returns the raw pre-render assets. The dialect check runs over
	// these, not the rendered SQL, so findings carry original file positions.
	Sources() []SchemaAsset
}
