package roomcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Length(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 4, 6, 12} {
		code, err := New(n)
		require.NoError(t, err)
		assert.Len(t, code, n)
	}
}

func TestNew_DefaultLength(t *testing.T) {
	t.Parallel()

	code, err := New(0)
	require.NoError(t, err)
	assert.Len(t, code, DefaultLength)
}

func TestNew_AlphabetOnly(t *testing.T) {
	t.Parallel()

	for range 50 {
		code, err := New(8)
		require.NoError(t, err)
		for _, ch := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, ch), "unexpected character %q", ch)
		}
	}
}

func TestNew_Varies(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for range 20 {
		code, err := New(8)
		require.NoError(t, err)
		seen[code] = true
	}
	// 20 draws from a 31^8 space colliding would mean broken randomness.
	assert.Greater(t, len(seen), 1)
}
