package scanner

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/omopkit/omopload/internal/cdm"
	"github.com/omopkit/omopload/internal/files/filesystem"
	"github.com/omopkit/omopload/pkg/omopload"
)

// Scanner resolves a staging directory into per-table load inputs.
//
// Layout rules:
//   - Vocabulary tables live in <staging>/vocab/ as UPPER.csv, tab-delimited,
//     no header row.
//   - Every other table lives in <staging>/<dataset>/ as lower.csv,
//     comma-delimited, with a header row.
//   - Either flavor may ship chunked: name.csv.0, name.csv.1, ... A single
//     unchunked file always wins exclusively over chunks.
//   - A still-compressed ".lzo" sibling is recorded as skipped, never loaded.
//
// Scanner is safe for concurrent use by multiple goroutines as long as the
// provided fsProvider is also thread-safe.
type Scanner struct {
	fsProvider filesystem.FileSystemProvider
}

// NewScanner creates a new staging scanner using the OS filesystem.
func NewScanner() *Scanner {
	return &Scanner{
		fsProvider: filesystem.NewOSFileSystem(),
	}
}

// NewScannerWithFS creates a new staging scanner with a custom filesystem provider.
// This is primarily useful for testing with in-memory filesystems.
// Panics if fsProvider is nil.
func NewScannerWithFS(fsProvider filesystem.FileSystemProvider) *Scanner {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	return &Scanner{
		fsProvider: fsProvider,
	}
}

// ScanStaging discovers the source files for every registered table.
//
// Tables with no staged file are simply absent from the result: partial and
// sample datasets are expected, and the loader records the skip. Dataset
// directories that do not exist are treated the same way.
//
// Returns ErrStagingNotFound if the staging root itself is unusable.
func (s *Scanner) ScanStaging(stagingPath string, datasets []string) (omopload.ScanResult, error) {
	info, err := s.fsProvider.Stat(stagingPath)
	if err != nil {
		return omopload.ScanResult{}, fmt.Errorf("staging directory %s: %v: %w", stagingPath, err, omopload.ErrStagingNotFound)
	}
	if !info.IsDir() {
		return omopload.ScanResult{}, fmt.Errorf("staging path %s is not a directory: %w", stagingPath, omopload.ErrStagingNotFound)
	}

	result := omopload.ScanResult{
		Root:    stagingPath,
		Sources: make(map[string]omopload.TableSource),
	}

	// Directory listings are fetched once and shared across tables.
	listings := map[string][]string{}
	listDir := func(dir string) []string {
		if names, ok := listings[dir]; ok {
			return names
		}
		entries, err := s.fsProvider.ReadDir(filepath.Join(stagingPath, dir))
		var names []string
		if err == nil {
			for _, e := range entries {
				if !e.IsDir() {
					names = append(names, e.Name())
				}
			}
			sort.Strings(names)
		}
		listings[dir] = names
		return names
	}

	for _, table := range cdm.Tables() {
		var dirs []string
		var base string
		if table.Vocabulary {
			dirs = []string{omopload.VocabDirName}
			base = strings.ToUpper(table.Name) + ".csv"
		} else {
			dirs = datasets
			base = table.Name + ".csv"
		}

		src := omopload.TableSource{Table: table.Name}
		for _, dir := range dirs {
			files, skipped := resolveTableFiles(listDir(dir), dir, base)
			for _, f := range files {
				staged, err := s.describe(stagingPath, f, table)
				if err != nil {
					return omopload.ScanResult{}, err
				}
				src.Files = append(src.Files, staged)
			}
			src.SkippedCompressed = append(src.SkippedCompressed, skipped...)
		}

		if len(src.Files) > 0 || len(src.SkippedCompressed) > 0 {
			result.Sources[table.Name] = src
		}
	}

	return result, nil
}

// resolveTableFiles applies the single-file-wins rule to one directory
// listing. Returned paths are staging-relative with forward slashes.
func resolveTableFiles(entries []string, dir, base string) (files []string, skippedCompressed []string) {
	exact := false
	var chunks []string

	for _, name := range entries {
		if name == base {
			exact = true
			continue
		}
		rest, ok := strings.CutPrefix(name, base+".")
		if !ok {
			continue
		}
		if strings.HasSuffix(name, ".lzo") {
			skippedCompressed = append(skippedCompressed, dir+"/"+name)
			continue
		}
		if isChunkSuffix(rest) {
			chunks = append(chunks, name)
		}
	}

	if exact {
		// A complete unchunked file supersedes any chunk remnants.
		return []string{dir + "/" + base}, skippedCompressed
	}

	sort.Strings(chunks)
	for _, name := range chunks {
		files = append(files, dir+"/"+name)
	}
	return files, skippedCompressed
}

// isChunkSuffix reports whether s is a pure chunk index ("0", "001", "17").
func isChunkSuffix(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// describe fills in the COPY-relevant attributes for one resolved file.
func (s *Scanner) describe(stagingPath, relPath string, table cdm.Table) (omopload.StagedFile, error) {
	info, err := s.fsProvider.Stat(filepath.Join(stagingPath, filepath.FromSlash(relPath)))
	if err != nil {
		return omopload.StagedFile{}, fmt.Errorf("stat staged file %s: %w", relPath, err)
	}

	delimiter := omopload.DelimiterComma
	header := true
	if table.Vocabulary {
		delimiter = omopload.DelimiterTab
		header = false
	}

	return omopload.StagedFile{
		Table:     table.Name,
		Path:      relPath,
		Chunk:     !strings.HasSuffix(relPath, ".csv"),
		Delimiter: delimiter,
		Header:    header,
		SizeBytes: info.Size(),
	}, nil
}

// Verify Scanner implements the interface at compile time
var _ omopload.StagingScanner = (*Scanner)(nil)
