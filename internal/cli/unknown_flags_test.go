package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownFlag_ShowsHelpAndUsageError(t *testing.T) {
	for _, sub := range []string{"generate", "init", "watch"} {
		err := newTestRoot(sub, "--unknown-flag").Execute()
		require.Error(t, err, sub)
		_, ok := err.(usageError)
		assert.True(t, ok, "%s: expected usage error, got %T", sub, err)
		assert.Contains(t, err.Error(), "unknown flag")
		assert.Contains(t, err.Error(), "Usage:")
		assert.Equal(t, ExitUsage, ExitCode(err))
	}
}
