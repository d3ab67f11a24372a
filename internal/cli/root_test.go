package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/backkem/p2pcam/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "p2pcam.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRootCommandSubcommands(t *testing.T) {
	root := NewRootCommand()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"snapshot", "watch", "serve", "config"} {
		assert.Contains(t, names, want)
	}
}

func TestConfigCommandFlagOverrides(t *testing.T) {
	path := writeConfig(t, "name: porch\nip_address: 192.168.1.20\n")

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", path, "--ip-address", "10.0.0.9", "--log-level", "debug", "config"})

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "porch")
	assert.Contains(t, out.String(), "10.0.0.9")
	assert.NotContains(t, out.String(), "192.168.1.20")
	assert.Contains(t, out.String(), "debug")
}

func TestRootRejectsInvalidFlag(t *testing.T) {
	path := writeConfig(t, "ip_address: 192.168.1.20\nvertical_flip: 3\n")

	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", path, "config"})

	err := root.ExecuteContext(context.Background())
	assert.ErrorIs(t, err, config.ErrInvalidFlag)
}

func TestSaveFrames(t *testing.T) {
	dir := t.TempDir()
	save := saveFrames(dir)

	require.NoError(t, save(context.Background(), []byte{0xFF, 0xD8, 0xFF, 0xD9}))
	require.NoError(t, save(context.Background(), []byte{0xFF, 0xD8, 0x00, 0xFF, 0xD9}))

	data, err := os.ReadFile(filepath.Join(dir, "frame-000002.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8, 0x00, 0xFF, 0xD9}, data)
}

func TestInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	assert.False(t, interrupted(ctx, context.Canceled))
	cancel()
	assert.True(t, interrupted(ctx, context.Canceled))
	assert.False(t, interrupted(ctx, assert.AnError))
}
