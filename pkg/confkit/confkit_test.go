package confkit_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotevault-api/pkg/confkit"
)

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name string
		base string
		file string
		want string
	}{
		{"absolute passes through", "/base/dir", "/absolute/file.yaml", "/absolute/file.yaml"},
		{"relative joins base", "/base/dir", "config/file.yaml", "/base/dir/config/file.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, confkit.ResolvePath(tt.base, tt.file))
		})
	}
}

func TestResolvePathExpandsEnv(t *testing.T) {
	t.Setenv("CONFKIT_TEST_DIR", "expanded")
	assert.Equal(t, filepath.Join("/base", "expanded", "file.yaml"),
		confkit.ResolvePath("/base", "${CONFKIT_TEST_DIR}/file.yaml"))

	t.Setenv("CONFKIT_TEST_ABS", "/abs/dir")
	assert.Equal(t, "/abs/dir/file.yaml",
		confkit.ResolvePath("/base", "${CONFKIT_TEST_ABS}/file.yaml"))
}

func TestBaseDir(t *testing.T) {
	assert.Equal(t, "/etc/config", confkit.BaseDir("/etc/config/app.yaml"))
	assert.Equal(t, "/", confkit.BaseDir("/app.yaml"))
	assert.Equal(t, "config", confkit.BaseDir("config/app.yaml"))
}

func TestSectionHydrateWithoutFile(t *testing.T) {
	section := &confkit.Section[string]{}
	err := section.Hydrate("/base", func(string) (*string, error) {
		t.Fatal("loader must not run for an empty File")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Nil(t, section.Value)
}

func TestSectionHydrate(t *testing.T) {
	section := &confkit.Section[string]{File: "config.yaml"}
	loaded := "test value"

	err := section.Hydrate("/base", func(path string) (*string, error) {
		assert.Equal(t, "/base/config.yaml", path)
		return &loaded, nil
	})
	require.NoError(t, err)
	require.NotNil(t, section.Value)
	assert.Equal(t, loaded, *section.Value)
	assert.Equal(t, "/base/config.yaml", section.File, "File is rewritten to the resolved path")
}

func TestProjectPath(t *testing.T) {
	root := confkit.MustProjectRoot()
	_, err := os.Stat(filepath.Join(root, "go.mod"))
	require.NoError(t, err, "project root must contain go.mod")
	assert.Equal(t, filepath.Join(root, "etc/market.yaml"), confkit.MustProjectPath("etc/market.yaml"))
}
