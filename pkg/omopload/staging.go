package omopload

import "context"

// Delimiter identifies the CSV flavor of a staged file.
type Delimiter int

const (
	DelimiterComma Delimiter = iota // dataset exports: comma, quoted, header row
	DelimiterTab                    // vocabulary exports: tab, unquoted, no header
)

// String returns a human-readable string representation of the Delimiter.
func (d Delimiter) String() string {
	switch d {
	case DelimiterComma:
		return "comma"
	case DelimiterTab:
		return "tab"
	default:
		return "unknown"
	}
}

// StagedFile represents one on-disk file resolved to a CDM table.
// All file paths use Unix-style forward slashes for cross-platform consistency.
type StagedFile struct {
	// Table is the CDM table the file loads into (lower-case)
	Table string

	// Path is the file location relative to the staging root: "vocab/CONCEPT.csv"
	Path string

	// Chunk is true when the file is a numbered slice of a larger export
	// ("person.csv.001") rather than a complete single file
	Chunk bool

	// Delimiter and Header describe the CSV flavor COPY must be told about
	Delimiter Delimiter
	Header    bool

	// SizeBytes is the file size in bytes
	SizeBytes int64
}

// TableSource is the resolved input for one table: the files to stream, in
// load order, plus any compressed leftovers that were excluded.
type TableSource struct {
	// Table is the CDM table name (lower-case)
	Table string

	// Files are loaded in order. Either exactly one unchunked file, or the
	// chunk files in lexical name order.
	Files []StagedFile

	// SkippedCompressed lists still-compressed siblings (".lzo") that were
	// present but excluded from the load
	SkippedCompressed []string
}

// ScanResult holds the outcome of a staging directory scan, keyed by table name.
type ScanResult struct {
	// Root is the staging directory the Path fields are relative to
	Root string

	Sources map[string]TableSource
}

// Source returns the resolved input for a table, if the scan found one.
func (r ScanResult) Source(table string) (TableSource, bool) {
	src, ok := r.Sources[table]
	return src, ok
}

// FileCount returns the total number of files selected for loading.
func (r ScanResult) FileCount() int {
	n := 0
	for _, src := range r.Sources {
		n += len(src.Files)
	}
	return n
}

// FetchSummary reports what the acquisition stage did.
type FetchSummary struct {
	// Downloaded counts objects actually transferred
	Downloaded int

	// Skipped counts objects already present locally and left untouched
	Skipped int
}

// ExtractSummary reports what the decompression stage did.
type ExtractSummary struct {
	// GzipFiles counts ".gz" archives decompressed in-process
	GzipFiles int

	// LzopFiles counts ".lzo" archives decompressed via the external lzop tool
	LzopFiles int
}

// SourceFetcher downloads staging inputs from an object store.
type SourceFetcher interface {
	// Fetch mirrors the configured bucket prefix into stagingPath, skipping
	// objects whose local copy already exists. Which keys are considered is
	// derived from the dataset names plus the vocabulary directory.
	Fetch(ctx context.Context, stagingPath string, datasets []string) (FetchSummary, error)
}

// Extractor decompresses archives found under the staging directory in place.
type Extractor interface {
	// Extract walks stagingPath and decompresses every ".gz" and ".lzo" file,
	// removing the archive after successful extraction. A ".lzo" file with no
	// lzop tool installed fails with ErrMissingTool before anything is touched.
	Extract(ctx context.Context, stagingPath string) (ExtractSummary, error)
}

// StagingScanner resolves the staging directory into per-table load inputs.
type StagingScanner interface {
	// ScanStaging discovers the files for every known CDM table. A table with
	// no files is simply absent from the result; the loader records it as
	// skipped. An unreadable staging root fails with ErrStagingNotFound.
	ScanStaging(stagingPath string, datasets []string) (ScanResult, error)
}
