package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_RegeneratesOnChange(t *testing.T) {
	specPath := writeCLISpec(t, cliSpec)
	out := filepath.Join(t.TempDir(), "API.md")

	gen := &GenerateConfig{Input: specPath, Out: out, Detail: "summary", Format: "markdown", Sort: "alpha"}
	gen.normalize()
	require.NoError(t, gen.validate())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runWatch(ctx, &WatchConfig{Generate: gen, Debounce: 20 * time.Millisecond}, streams{out: io.Discard})
	}()

	readOut := func() string {
		data, err := os.ReadFile(out)
		if err != nil {
			return ""
		}
		return string(data)
	}
	require.Eventually(t, func() bool {
		return strings.HasPrefix(readOut(), "# Pet Store\n")
	}, 5*time.Second, 20*time.Millisecond, "initial generation")

	updated := strings.Replace(cliSpec, "title: Pet Store", "title: Pet Shop", 1)
	require.NoError(t, os.WriteFile(specPath, []byte(updated), 0o600))

	require.Eventually(t, func() bool {
		return strings.HasPrefix(readOut(), "# Pet Shop\n")
	}, 5*time.Second, 20*time.Millisecond, "regeneration after write")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatch_UsageErrors(t *testing.T) {
	watchRunner = func(context.Context, *WatchConfig, streams) error {
		t.Fatal("runner must not be reached")
		return nil
	}
	t.Cleanup(func() { watchRunner = runWatch })

	cases := map[string][]string{
		"stdin":    {"watch", "-"},
		"url":      {"watch", "https://example.com/openapi.json"},
		"check":    {"watch", "api.yaml", "-o", "API.md", "--check"},
		"debounce": {"watch", "api.yaml", "--debounce", "0s"},
		"no input": {"watch"},
	}
	for name, args := range cases {
		err := newTestRoot(args...).Execute()
		require.Error(t, err, name)
		assert.ErrorIs(t, err, ErrUsage, name)
	}
}

func TestWatch_PassesResolvedConfig(t *testing.T) {
	var captured *WatchConfig
	watchRunner = func(_ context.Context, cfg *WatchConfig, _ streams) error {
		captured = cfg
		return nil
	}
	t.Cleanup(func() { watchRunner = runWatch })

	require.NoError(t, newTestRoot("watch", "api.yaml", "-o", "API.md", "--debounce", "1s", "--detail", "full").Execute())
	require.NotNil(t, captured)
	assert.Equal(t, time.Second, captured.Debounce)
	assert.Equal(t, "api.yaml", captured.Generate.Input)
	assert.Equal(t, "full", captured.Generate.Detail)
}
