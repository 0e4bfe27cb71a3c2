package fixtures

import (
	"fmt"
	"strings"

	"github.com/omopkit/omopload/internal/files/filesystem"
)

// StagingFixtureBuilder provides a fluent API for building in-memory staging
// directory fixtures used in scanner and session tests. It generates the
// two-flavor layout the loader expects: vocab/ with tab-delimited headerless
// files, and dataset directories with comma-delimited header-row files.
//
// Example usage:
//
//	fixture := NewStagingFixtureBuilder("/staging").
//	    AddVocabTable("CONCEPT", "1\tAspirin\tDrug\n").
//	    AddDatasetTable("synthea", "person", "person_id\n1\n").
//	    Build()
type StagingFixtureBuilder struct {
	root  string
	files map[string]string // staging-relative path -> content
}

// NewStagingFixtureBuilder creates a new fixture builder rooted at the given
// staging path.
func NewStagingFixtureBuilder(root string) *StagingFixtureBuilder {
	return &StagingFixtureBuilder{
		root:  strings.TrimRight(root, "/"),
		files: map[string]string{},
	}
}

// AddFile adds an arbitrary file at the specified staging-relative path.
func (b *StagingFixtureBuilder) AddFile(path, content string) *StagingFixtureBuilder {
	b.files[path] = content
	return b
}

// AddVocabTable adds an UPPER.csv vocabulary file under vocab/.
func (b *StagingFixtureBuilder) AddVocabTable(name, content string) *StagingFixtureBuilder {
	b.files[fmt.Sprintf("vocab/%s.csv", strings.ToUpper(name))] = content
	return b
}

// AddDatasetTable adds a lower.csv clinical file under the named dataset
// directory.
func (b *StagingFixtureBuilder) AddDatasetTable(dataset, table, content string) *StagingFixtureBuilder {
	b.files[fmt.Sprintf("%s/%s.csv", dataset, table)] = content
	return b
}

// AddDatasetChunks adds a chunked table: table.csv.0, table.csv.1, ... with
// one content string per chunk.
func (b *StagingFixtureBuilder) AddDatasetChunks(dataset, table string, chunks ...string) *StagingFixtureBuilder {
	for i, content := range chunks {
		b.files[fmt.Sprintf("%s/%s.csv.%d", dataset, table, i)] = content
	}
	return b
}

// AddCompressedLeftover adds a still-compressed .lzo sibling that the scanner
// must record as skipped.
func (b *StagingFixtureBuilder) AddCompressedLeftover(dataset, table string) *StagingFixtureBuilder {
	b.files[fmt.Sprintf("%s/%s.csv.lzo", dataset, table)] = "\x00lzop"
	return b
}

// Build generates the filesystem.FileSystemProvider from the accumulated files.
func (b *StagingFixtureBuilder) Build() filesystem.FileSystemProvider {
	fs := filesystem.NewMemoryFileSystem("/")

	for path, content := range b.files {
		fs.AddFile(b.root+"/"+path, content)
	}

	return fs
}

// ============================================================================
// Pre-built Fixtures
// ============================================================================

// StandardStaging creates a representative staging tree with:
//   - 3 vocabulary files in vocab/
//   - a dataset directory with person and observation_period files
//   - a chunked observation table (3 chunks)
//   - one still-compressed leftover
func StandardStaging(root string) filesystem.FileSystemProvider {
	return NewStagingFixtureBuilder(root).
		AddVocabTable("CONCEPT", "1\tAspirin\tDrug\t\t\t\t\t\t\t\n").
		AddVocabTable("VOCABULARY", "RxNorm\tRxNorm\t\t\t\n").
		AddVocabTable("DOMAIN", "Drug\tDrug\t1\n").
		AddDatasetTable("synthea", "person", "person_id,gender_concept_id\n1,8507\n2,8532\n").
		AddDatasetTable("synthea", "observation_period", "observation_period_id,person_id\n1,1\n").
		AddDatasetChunks("synthea", "observation",
			"observation_id,person_id\n1,1\n",
			"observation_id,person_id\n2,1\n",
			"observation_id,person_id\n3,2\n").
		AddCompressedLeftover("synthea", "note").
		Build()
}

// EmptyStaging creates a staging root with no table files at all.
func EmptyStaging(root string) filesystem.FileSystemProvider {
	fs := filesystem.NewMemoryFileSystem("/")
	fs.AddFile(strings.TrimRight(root, "/")+"/vocab/.gitkeep", "")
	return fs
}

// VocabOnlyStaging creates a staging tree holding vocabulary files only, the
// shape of a fresh Athena download before any clinical data exists.
func VocabOnlyStaging(root string) filesystem.FileSystemProvider {
	return NewStagingFixtureBuilder(root).
		AddVocabTable("CONCEPT", "1\tAspirin\tDrug\n").
		AddVocabTable("CONCEPT_RELATIONSHIP", "1\t2\tMaps to\n").
		AddVocabTable("VOCABULARY", "RxNorm\tRxNorm\n").
		Build()
}

// MultiDatasetStaging creates two dataset directories contributing files for
// the same table, the shape of an incremental multi-site load.
func MultiDatasetStaging(root string) filesystem.FileSystemProvider {
	return NewStagingFixtureBuilder(root).
		AddDatasetTable("site_a", "person", "person_id\n1\n").
		AddDatasetTable("site_b", "person", "person_id\n2\n").
		AddDatasetTable("site_b", "death", "person_id,death_date\n2,2020-01-01\n").
		Build()
}
