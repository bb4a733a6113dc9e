package configwatcher

import (
	"context"
	"neet_tracker_backend/internal/config"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchConfig_ReloadsAfterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"8080\"\n"), 0o644))

	loads := make(chan string, 4)
	load := func(d string) (*config.Config, error) {
		loads <- d
		return &config.Config{}, nil
	}
	reloaded := make(chan *config.Config, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- WatchConfig(ctx, path, load, func(cfg *config.Config) { reloaded <- cfg })
	}()

	// give the watcher time to register before writing
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o644))

	select {
	case cfg := <-reloaded:
		assert.NotNil(t, cfg)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
	assert.Equal(t, dir, filepath.Clean(<-loads))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
