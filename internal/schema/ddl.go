package schema

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/omopkit/omopload/internal/files/filesystem"
	"github.com/omopkit/omopload/pkg/omopload"
)

//go:embed assets
var assetFS embed.FS

// Version identifies a CDM release whose DDL ships embedded in the binary.
type Version string

const (
	V531 Version = "5.3.1"

	// Latest is the version used when none is requested.
	Latest Version = V531
)

var supportedVersions = map[Version]string{
	V531: "assets/5.3.1",
}

// assetOrder is the application order within a version directory: tables
// first, then primary keys, then foreign key constraints. Lexical order
// would interleave them.
var assetOrder = []string{
	"omop_cdm_ddl.sql",
	"omop_cdm_primary_keys.sql",
	"omop_cdm_constraints.sql",
}

// Load returns the embedded DDL assets for the requested CDM version in
// application order. An empty version selects Latest.
func Load(version string) ([]omopload.SchemaAsset, Version, error) {
	v := Version(version)
	if v == "" {
		v = Latest
	}

	dir, ok := supportedVersions[v]
	if !ok {
		return nil, "", fmt.Errorf("%w: CDM version %q; supported: %v",
			omopload.ErrSchemaNotFound, version, SupportedVersions())
	}

	assets := make([]omopload.SchemaAsset, 0, len(assetOrder))
	for _, name := range assetOrder {
		content, err := assetFS.ReadFile(path.Join(dir, name))
		if err != nil {
			return nil, "", fmt.Errorf("reading embedded asset %s: %w", name, err)
		}
		assets = append(assets, omopload.SchemaAsset{Name: name, Content: string(content)})
	}
	return assets, v, nil
}

// LoadDir reads DDL assets from an external directory, the --ddl-dir
// override. Files matching the canonical asset names keep the canonical
// order; any other *.sql files follow in lexical order.
func LoadDir(fsProvider filesystem.FileSystemProvider, dir string) ([]omopload.SchemaAsset, error) {
	entries, err := fsProvider.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: DDL directory %s: %v", omopload.ErrSchemaNotFound, dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no .sql files in %s", omopload.ErrSchemaNotFound, dir)
	}

	sort.Slice(names, func(i, j int) bool {
		ri, rj := canonicalRank(names[i]), canonicalRank(names[j])
		if ri != rj {
			return ri < rj
		}
		return names[i] < names[j]
	})

	assets := make([]omopload.SchemaAsset, 0, len(names))
	for _, name := range names {
		content, err := fsProvider.ReadFile(path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		assets = append(assets, omopload.SchemaAsset{Name: name, Content: string(content)})
	}
	return assets, nil
}

func canonicalRank(name string) int {
	for i, canonical := range assetOrder {
		if name == canonical {
			return i
		}
	}
	return len(assetOrder)
}

// SupportedVersions returns a sorted list of embedded CDM versions.
func SupportedVersions() []Version {
	versions := make([]Version, 0, len(supportedVersions))
	for v := range supportedVersions {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions
}

// LatestVersion returns the current latest embedded CDM version.
func LatestVersion() Version {
	return Latest
}
