package console

import (
	"io"

	"github.com/muesli/termenv"
)

// TermScreen clears the terminal with ANSI sequences.
type TermScreen struct {
	out *termenv.Output
}

// NewTermScreen writes clear sequences to w.
func NewTermScreen(w io.Writer) *TermScreen {
	return &TermScreen{out: termenv.NewOutput(w)}
}

// Clear erases the screen and homes the cursor.
func (s *TermScreen) Clear() {
	s.out.ClearScreen()
}
