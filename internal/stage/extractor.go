package stage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/omopkit/omopload/pkg/omopload"
)

// lzopBinary is the external tool required for ".lzo" archives.
const lzopBinary = "lzop"

// Extractor decompresses archives under the staging directory in place.
type Extractor struct {
	logger omopload.Logger

	// lookPath is swappable for tests; defaults to exec.LookPath
	lookPath func(file string) (string, error)

	// runLzop is swappable for tests; defaults to invoking the lzop binary
	runLzop func(ctx context.Context, path string) error
}

// Compile-time interface check
var _ omopload.Extractor = (*Extractor)(nil)

// NewExtractor creates an extractor.
// Panics if logger is nil.
func NewExtractor(logger omopload.Logger) *Extractor {
	if logger == nil {
		panic("logger cannot be nil")
	}
	e := &Extractor{
		logger:   logger,
		lookPath: exec.LookPath,
	}
	e.runLzop = e.execLzop
	return e
}

// Extract walks stagingPath and decompresses every ".gz" and ".lzo" file,
// removing the archive after successful extraction. The lzop tool is a
// precondition checked before anything is touched, but only when ".lzo"
// files are actually present: a gzip-only staging area never needs it.
func (e *Extractor) Extract(ctx context.Context, stagingPath string) (omopload.ExtractSummary, error) {
	summary := omopload.ExtractSummary{}

	var gzipFiles, lzopFiles []string
	err := filepath.WalkDir(stagingPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch {
		case strings.HasSuffix(path, ".gz"):
			gzipFiles = append(gzipFiles, path)
		case strings.HasSuffix(path, ".lzo"):
			lzopFiles = append(lzopFiles, path)
		}
		return nil
	})
	if err != nil {
		return summary, fmt.Errorf("%w: walking %s: %v", omopload.ErrStagingNotFound, stagingPath, err)
	}

	if len(lzopFiles) > 0 {
		if _, err := e.lookPath(lzopBinary); err != nil {
			return summary, fmt.Errorf("%w: %s is needed for %d .lzo archive(s); install it or decompress them manually",
				omopload.ErrMissingTool, lzopBinary, len(lzopFiles))
		}
	}

	for _, path := range gzipFiles {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := e.extractGzip(path); err != nil {
			return summary, fmt.Errorf("decompressing %s: %w", path, err)
		}
		summary.GzipFiles++
	}

	for _, path := range lzopFiles {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := e.runLzop(ctx, path); err != nil {
			return summary, fmt.Errorf("decompressing %s: %w", path, err)
		}
		summary.LzopFiles++
	}

	if summary.GzipFiles+summary.LzopFiles == 0 {
		e.logger.Verbose("No compressed files under %s", stagingPath)
	} else {
		e.logger.Info("Decompressed %d gzip and %d lzop archive(s)", summary.GzipFiles, summary.LzopFiles)
	}
	return summary, nil
}

// extractGzip decompresses one ".gz" archive in-process and removes it on
// success. The output is written next to the archive under the trimmed
// name, via a temp file so a failed extraction leaves no half-written
// staging input behind.
func (e *Extractor) extractGzip(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	reader, err := gzip.NewReader(in)
	if err != nil {
		return err
	}
	defer reader.Close()

	target := strings.TrimSuffix(path, ".gz")
	tmp := target + ".partial"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, reader); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return err
	}

	e.logger.Verbose("Decompressed %s", path)
	return os.Remove(path)
}

// execLzop shells out to lzop. -d decompresses next to the archive, -U
// removes the archive on success, matching the gzip behavior.
func (e *Extractor) execLzop(ctx context.Context, path string) error {
	cmd := exec.CommandContext(ctx, lzopBinary, "-d", "-U", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %s", err, strings.TrimSpace(string(output)))
	}
	e.logger.Verbose("Decompressed %s", path)
	return nil
}
