package scaffold_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omopkit/omopload/internal/config"
	"github.com/omopkit/omopload/internal/scaffold"
)

func TestListTemplates(t *testing.T) {
	templates, err := scaffold.ListTemplates()
	require.NoError(t, err)
	assert.Contains(t, templates, "default")
}

func TestDefaultTemplate_ProjectLayout(t *testing.T) {
	targetDir := filepath.Join(t.TempDir(), "myproject")

	scaffolder := scaffold.NewScaffolder(false)
	require.NoError(t, scaffolder.CreateProject("myproject", "default", targetDir))

	for _, path := range []string{
		"omopload.yaml",
		".env.example",
		"README.md",
		filepath.Join("staging", "vocab", ".gitkeep"),
		filepath.Join("staging", "synthea", ".gitkeep"),
	} {
		_, err := os.Stat(filepath.Join(targetDir, path))
		assert.NoError(t, err, "expected %s in scaffolded project", path)
	}
}

func TestDefaultTemplate_ConfigParses(t *testing.T) {
	targetDir := filepath.Join(t.TempDir(), "myproject")

	scaffolder := scaffold.NewScaffolder(false)
	require.NoError(t, scaffolder.CreateProject("myproject", "default", targetDir))

	cfg, err := config.Load(targetDir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "omop", cfg.Connection.Database)
	assert.Equal(t, "cdm", cfg.Schema)
	assert.Equal(t, "staging", cfg.Staging)
	assert.Equal(t, []string{"synthea"}, cfg.Datasets)
	assert.Equal(t, "5.3.1", cfg.CDMVersion)
	// The scaffolded source block is commented out
	assert.Empty(t, cfg.Source.Bucket)
}

func TestDefaultTemplate_ProjectNameSubstituted(t *testing.T) {
	targetDir := filepath.Join(t.TempDir(), "cohort-x")

	scaffolder := scaffold.NewScaffolder(false)
	require.NoError(t, scaffolder.CreateProject("cohort-x", "default", targetDir))

	readme, err := os.ReadFile(filepath.Join(targetDir, "README.md"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(readme), "# cohort-x"), "README must open with the project name")
	assert.NotContains(t, string(readme), "{{PROJECT_NAME}}")
}

func TestCreateProject_KeepsExistingConfig(t *testing.T) {
	targetDir := filepath.Join(t.TempDir(), "existing")
	require.NoError(t, os.MkdirAll(targetDir, 0o755))

	existing := "connection:\n  host: customhost\n"
	require.NoError(t, os.WriteFile(filepath.Join(targetDir, "omopload.yaml"), []byte(existing), 0o644))

	scaffolder := scaffold.NewScaffolder(false)
	require.NoError(t, scaffolder.CreateProject("existing", "default", targetDir))

	content, err := os.ReadFile(filepath.Join(targetDir, "omopload.yaml"))
	require.NoError(t, err)
	assert.Equal(t, existing, string(content), "existing omopload.yaml must not be overwritten")
}

func TestCreateProject_UnknownTemplate(t *testing.T) {
	scaffolder := scaffold.NewScaffolder(false)
	err := scaffolder.CreateProject("p", "nope", filepath.Join(t.TempDir(), "p"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
