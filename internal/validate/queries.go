package validate

// Catalog queries used by the post-load checks. Schema and table names
// arrive as parameters wherever PostgreSQL allows it; only the row-count
// query interpolates, and that goes through pgx.Identifier.Sanitize().
const (
	queryTablesInSchema = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'`

	queryConstraintCount = `
		SELECT count(*)
		FROM information_schema.table_constraints
		WHERE table_schema = $1 AND constraint_type = $2`

	queryPrimaryKeyExists = `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.table_constraints
			WHERE table_schema = $1 AND table_name = $2
			  AND constraint_type = 'PRIMARY KEY')`

	queryColumnType = `
		SELECT data_type
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2 AND column_name = $3`

	queryDataTypeCount = `
		SELECT count(*)
		FROM information_schema.columns
		WHERE table_schema = $1 AND data_type = $2`
)

// watchedDataTypes are the type conventions tallied by check 5.
var watchedDataTypes = []string{"character varying", "bigint"}

// columnSpotChecks are the fixed column/type expectations of check 2's
// companion: a handful of load-bearing columns whose types would break
// downstream tooling if the DDL drifted.
var columnSpotChecks = []struct {
	table    string
	column   string
	expected string
}{
	{"person", "person_id", "integer"},
	{"concept", "concept_id", "integer"},
	{"concept", "concept_name", "character varying"},
	{"observation_period", "observation_period_start_date", "date"},
	{"measurement", "value_as_number", "numeric"},
}
