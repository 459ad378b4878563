package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	ansi "github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/lipgloss"
)

// RenderMarkdown renders md for a terminal of the given width. On renderer
// failure the raw Markdown is returned.
func RenderMarkdown(md string, width int) string {
	const glamourGutter = 2
	wrap := width - glamourGutter
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(vitesseGlamour()),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n") + "\n"
}

func vitesseGlamour() ansi.StyleConfig {
	// lipgloss colors may carry an alpha channel glamour does not accept
	hex := func(c lipgloss.Color) string {
		s := string(c)
		if strings.HasPrefix(s, "#") && len(s) == 9 {
			return s[:7]
		}
		return s
	}
	sp := func(s string) *string { return &s }
	bp := func(b bool) *bool { return &b }

	text := hex(Vitesse.Text)
	secondary := hex(Vitesse.Secondary)
	muted := hex(Vitesse.Muted)
	primary := hex(Vitesse.Primary)
	blue := hex(Vitesse.Blue)
	yellow := hex(Vitesse.Yellow)
	magenta := hex(Vitesse.Magenta)
	bgSoft := hex(Vitesse.BgSoft)

	heading := ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Color: sp(blue), Bold: bp(true)}}
	return ansi.StyleConfig{
		Document: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: sp(text)},
			Margin:         uintPtr(1),
		},
		Paragraph: ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Color: sp(text)}},
		BlockQuote: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: sp(secondary), Italic: bp(true)},
		},
		List: ansi.StyleList{LevelIndent: 2},
		Item: ansi.StylePrimitive{BlockPrefix: "• "},
		Heading: heading,
		H1: ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{
			Color: sp(primary), Bold: bp(true), BlockSuffix: "\n",
		}},
		H2: heading,
		H3: heading,

		Text:   ansi.StylePrimitive{Color: sp(text)},
		Emph:   ansi.StylePrimitive{Italic: bp(true)},
		Strong: ansi.StylePrimitive{Bold: bp(true)},

		Link:     ansi.StylePrimitive{Color: sp(blue), Underline: bp(true)},
		LinkText: ansi.StylePrimitive{Color: sp(blue), Underline: bp(true)},

		Code: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: sp(yellow), BackgroundColor: sp(bgSoft)},
		},
		CodeBlock: ansi.StyleCodeBlock{
			StyleBlock: ansi.StyleBlock{
				StylePrimitive: ansi.StylePrimitive{Color: sp(text)},
				Margin:         uintPtr(2),
			},
			Chroma: &ansi.Chroma{
				Text:          ansi.StylePrimitive{Color: sp(text)},
				Comment:       ansi.StylePrimitive{Color: sp(muted), Italic: bp(true)},
				Keyword:       ansi.StylePrimitive{Color: sp(primary), Bold: bp(true)},
				NameBuiltin:   ansi.StylePrimitive{Color: sp(magenta)},
				LiteralString: ansi.StylePrimitive{Color: sp(yellow)},
				LiteralNumber: ansi.StylePrimitive{Color: sp(magenta)},
				Operator:      ansi.StylePrimitive{Color: sp(secondary)},
				Punctuation:   ansi.StylePrimitive{Color: sp(secondary)},
			},
		},
	}
}

func uintPtr(u uint) *uint { return &u }
