package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.Contains(t, cfg.Plugins, "apoc")
	apoc := cfg.Plugins["apoc"]
	assert.Equal(t, "apoc", apoc.Field)
	require.NotNil(t, apoc.Bundled)
	assert.Equal(t, "5.0.0", apoc.Bundled.Since)
	assert.Equal(t, "labs", apoc.Bundled.Dir)

	gds := cfg.Plugins["graph-data-science"]
	assert.Equal(t, "gds", gds.Field)
	assert.True(t, gds.Bundled.EnterpriseOnly)

	assert.Empty(t, cfg.Plugins["genai"].Catalog)
	assert.Equal(t, "5.0.0", cfg.Plugins["streams"].Bundled.Until)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "not yaml",
			content: "plugins: [",
			wantErr: "parsing registry",
		},
		{
			name:    "no plugins",
			content: "plugins: {}",
			wantErr: "validating registry",
		},
		{
			name: "neither catalog nor bundled",
			content: `plugins:
  apoc:
    field: apoc`,
			wantErr: "validating registry",
		},
		{
			name: "bad dir",
			content: `plugins:
  apoc:
    bundled:
      since: 5.0.0
      dir: plugins`,
			wantErr: "validating registry",
		},
		{
			name: "bad since",
			content: `plugins:
  apoc:
    bundled:
      since: 5.0.x
      dir: labs`,
			wantErr: "bundled.since",
		},
		{
			name: "bad until",
			content: `plugins:
  apoc:
    bundled:
      since: 5.0.0
      until: five
      dir: labs`,
			wantErr: "bundled.until",
		},
		{
			name: "until not after since",
			content: `plugins:
  apoc:
    bundled:
      since: 5.0.0
      until: 5.0.0-rc1
      dir: labs`,
			wantErr: "must be after since",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugins.yaml")
	content := `plugins:
  custom:
    catalog: ./custom-versions.json
    field: custom
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"custom"}, cfg.IDs())
	assert.Nil(t, cfg.Plugins["custom"].Bundled)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSources(t *testing.T) {
	sources := Default().Sources()

	assert.Equal(t, "gds", sources["graph-data-science"].Field)
	assert.NotEmpty(t, sources["apoc"].Location)
	assert.NotContains(t, sources, "genai")
}

func TestIDs_Sorted(t *testing.T) {
	ids := Default().IDs()
	require.NotEmpty(t, ids)
	assert.IsIncreasing(t, ids)
}
