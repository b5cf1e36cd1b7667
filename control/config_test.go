package control_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kienpl96/kannel/control"
)

func writeConfig(t *testing.T, path string, listenAddr string) {
	t.Helper()
	content := "listen_addr: \"" + listenAddr + "\"\nidle_timeout_seconds: 30\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadConfigStoreParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, ":9000")

	cs, err := control.LoadConfigStore(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cs.Snapshot().ListenAddr)
	require.Equal(t, 30, cs.Snapshot().IdleTimeoutSeconds)
}

func TestReloadPicksUpFileChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, ":9000")

	cs, err := control.LoadConfigStore(path)
	require.NoError(t, err)

	var got control.Config
	done := make(chan struct{})
	cs.OnReload(func(cfg control.Config) {
		got = cfg
		close(done)
	})

	writeConfig(t, path, ":9001")
	require.NoError(t, cs.Reload())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reload listener never fired")
	}
	require.Equal(t, ":9001", got.ListenAddr)
	require.Equal(t, ":9001", cs.Snapshot().ListenAddr)
}

func TestWatchConfigFileReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, ":9000")

	cs, err := control.LoadConfigStore(path)
	require.NoError(t, err)

	reloaded := make(chan struct{}, 1)
	cs.OnReload(func(control.Config) {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})

	w, err := control.WatchConfigFile(cs)
	require.NoError(t, err)
	defer w.Close()

	time.Sleep(50 * time.Millisecond)
	writeConfig(t, path, ":9002")

	select {
	case <-reloaded:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never triggered a reload")
	}
	require.Equal(t, ":9002", cs.Snapshot().ListenAddr)
}
