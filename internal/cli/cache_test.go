package cli

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/kgview/internal/config"
	"github.com/matzehuels/kgview/pkg/cache"
	"github.com/matzehuels/kgview/pkg/errors"
)

func TestCacheDirFromConfig(t *testing.T) {
	c := &CLI{Config: &config.Config{Cache: config.CacheConfig{Dir: "/tmp/kg-cache"}}}
	dir, err := c.cacheDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/kg-cache", dir)
}

func TestCacheDirDefault(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CACHE_HOME is only honored on Linux")
	}
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	c := &CLI{Config: &config.Config{}}
	dir, err := c.cacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(xdg, appName), dir)
}

func TestNewKeyerPrefix(t *testing.T) {
	opts := cache.ViewKeyOpts{Locale: "en-US"}
	plain := cache.NewDefaultKeyer().ViewKey("abc", opts)

	c := &CLI{Config: &config.Config{}}
	assert.Equal(t, plain, c.newKeyer().ViewKey("abc", opts))

	c = &CLI{Config: &config.Config{Cache: config.CacheConfig{Prefix: "kgview:prod:"}}}
	assert.Equal(t, "kgview:prod:"+plain, c.newKeyer().ViewKey("abc", opts))
}

func TestCachePathCommand(t *testing.T) {
	dir := setup(t)
	cacheDir := filepath.Join(dir, "c")

	out, err := run(t, "cache", "path", "--cache-dir", cacheDir)
	require.NoError(t, err)
	assert.Equal(t, cacheDir+"\n", out)
}

func TestCacheClearCommand(t *testing.T) {
	dir := setup(t)
	cacheDir := filepath.Join(dir, "c")
	in := writeFile(t, dir, "rhine.json", samplePayload)

	// Empty cache.
	_, err := run(t, "cache", "clear", "--cache-dir", cacheDir)
	require.NoError(t, err)

	_, err = run(t, "render", in, "-f", "html,dot", "--cache-dir", cacheDir)
	require.NoError(t, err)
	require.Equal(t, 3, countFiles(cacheDir), "view plus two artifacts")

	_, err = run(t, "cache", "clear", "--cache-dir", cacheDir)
	require.NoError(t, err)
	assert.Equal(t, 0, countFiles(cacheDir))

	_, err = os.Stat(cacheDir)
	assert.NoError(t, err, "clear keeps the directory")
}

func TestCacheClearRejectsRedis(t *testing.T) {
	setup(t)

	_, err := run(t, "cache", "clear", "--cache", "redis", "--redis-url", "redis://localhost:6379/0")
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupported), "got %v", err)
}
