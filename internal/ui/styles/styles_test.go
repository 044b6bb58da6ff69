package styles

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPalette_PlainForNonTerminal(t *testing.T) {
	p := New(&bytes.Buffer{})
	require.Equal(t, strings.Repeat("=", SeparatorWidth), p.Separator())
	require.Equal(t, "ERROR: boom", p.ErrorLine("boom"))
	require.Equal(t, "Scout", p.Banner.Render("Scout"))
}
