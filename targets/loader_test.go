package targets_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/marcelsud/hookwatch/signature"
	"github.com/marcelsud/hookwatch/targets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTargets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "targets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoader_Load(t *testing.T) {
	t.Run("success - valid targets file", func(t *testing.T) {
		secret, err := signature.GenerateSecret(32)
		require.NoError(t, err)

		path := writeTargets(t, `
targets:
  - name: "staging"
    url: "https://staging.example.com/hooks"
    include_original_headers: true
    headers:
      X-Env: "staging"
    signing_secret: "`+secret.String()+`"
  - name: "local"
    url: "http://localhost:3000/webhook"
`)

		loader := targets.NewLoader()
		err = loader.Load(path)
		require.NoError(t, err)

		all := loader.List()
		require.Len(t, all, 2)
		assert.Equal(t, "local", all[0].Name)
		assert.Equal(t, "staging", all[1].Name)

		staging, err := loader.Get("staging")
		require.NoError(t, err)
		assert.Equal(t, "https://staging.example.com/hooks", staging.URL)
		assert.True(t, staging.IncludeOriginalHeaders)
		assert.Equal(t, map[string]string{"x-env": "staging"}, staging.Headers)
		assert.True(t, staging.Signed())

		local, err := loader.Get("local")
		require.NoError(t, err)
		assert.False(t, local.Signed())
		assert.False(t, local.IncludeOriginalHeaders)
	})

	t.Run("error - file not found", func(t *testing.T) {
		loader := targets.NewLoader()
		err := loader.Load("nonexistent.yaml")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading targets file")
	})

	t.Run("error - invalid YAML", func(t *testing.T) {
		loader := targets.NewLoader()
		err := loader.Load(writeTargets(t, `invalid yaml content: [[[`))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing targets YAML")
	})

	t.Run("error - relative url", func(t *testing.T) {
		loader := targets.NewLoader()
		err := loader.Load(writeTargets(t, `
targets:
  - name: "broken"
    url: "/hooks"
`))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid url for target broken")
	})

	t.Run("error - duplicate names", func(t *testing.T) {
		loader := targets.NewLoader()
		err := loader.Load(writeTargets(t, `
targets:
  - name: "a"
    url: "https://a.example.com"
  - name: "a"
    url: "https://b.example.com"
`))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate target name: a")
	})

	t.Run("error - bad signing secret", func(t *testing.T) {
		loader := targets.NewLoader()
		err := loader.Load(writeTargets(t, `
targets:
  - name: "signed"
    url: "https://a.example.com"
    signing_secret: "not-a-secret"
`))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid signing_secret for target signed")
	})
}

func TestLoader_Get(t *testing.T) {
	loader := targets.NewLoader()

	_, err := loader.Get("nonexistent")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "target not found")
	assert.False(t, loader.Exists("nonexistent"))
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr string
	}{
		{"https", "https://example.test/webhook", ""},
		{"http with port", "http://localhost:8080/x?y=1", ""},
		{"empty", "", "url cannot be empty"},
		{"ftp", "ftp://example.test", "scheme must be http or https"},
		{"no host", "https:///path", "must include a host"},
		{"relative", "example.test/webhook", "scheme must be http or https"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := targets.ValidateURL(tt.url)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
