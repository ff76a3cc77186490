package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServerVersion(t *testing.T) {
	t.Run("plain version", func(t *testing.T) {
		version, err := parseServerVersion("16.1")
		require.NoError(t, err)
		assert.Equal(t, uint64(16), version.Major())
		assert.Equal(t, uint64(1), version.Minor())
	})

	t.Run("version with distro suffix", func(t *testing.T) {
		version, err := parseServerVersion("15.4 (Debian 15.4-1.pgdg120+1)")
		require.NoError(t, err)
		assert.Equal(t, uint64(15), version.Major())
	})

	t.Run("empty version string", func(t *testing.T) {
		_, err := parseServerVersion("")
		assert.Error(t, err)
		assert.ErrorContains(t, err, "error parsing postgres server version")
	})

	t.Run("whitespace only", func(t *testing.T) {
		_, err := parseServerVersion("   ")
		assert.Error(t, err)
	})

	t.Run("garbage version string", func(t *testing.T) {
		_, err := parseServerVersion("not-a-version")
		assert.Error(t, err)
	})
}
