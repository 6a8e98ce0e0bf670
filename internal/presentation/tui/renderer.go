package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// Styles follow the terminal background unless plain is set, which is used
// when output is not a terminal.
func NewRenderer(plain bool) (func(string) (string, error), error) {
	opt := glamour.WithAutoStyle()
	if plain {
		opt = glamour.WithStandardStyle("notty")
	}

	r, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(100))
	if err != nil {
		return nil, err
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}, nil
}
