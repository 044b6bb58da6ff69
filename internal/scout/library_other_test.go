//go:build !windows

package scout

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpen_UnsupportedPlatform(t *testing.T) {
	f, err := Open("scout.dll", APIVersion)
	require.Nil(t, f)
	require.ErrorIs(t, err, ErrUnsupportedPlatform)
}
