// Package colorize highlights JSON and YAML report dumps for terminals.
package colorize

import (
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// EnvNoColor disables highlighting when set to any non-empty value.
const EnvNoColor = "DRMINFO_NO_COLOR"

// Enabled reports whether highlighting is allowed by the environment.
func Enabled() bool {
	return os.Getenv(EnvNoColor) == ""
}

// getStyle returns the report style with fallbacks
func getStyle() *chroma.Style {
	for _, name := range []string{"drminfo-dark", "dracula", "monokai"} {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

// getTerminalFormatter returns an appropriate terminal formatter
func getTerminalFormatter() chroma.Formatter {
	for _, name := range []string{"terminal16m", "terminal256"} {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// Colorize highlights code written in lang ("json" or "yaml"). The input is
// returned unchanged when colors are disabled or no lexer matches.
func Colorize(code, lang string) (string, error) {
	if !Enabled() {
		return code, nil
	}

	lexer := lexers.Get(lang)
	if lexer == nil {
		return code, nil
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code, err
	}

	var buf strings.Builder
	if err := getTerminalFormatter().Format(&buf, getStyle(), iterator); err != nil {
		return code, err
	}
	return buf.String(), nil
}

// JSON highlights a JSON document.
func JSON(code string) (string, error) {
	return Colorize(code, "json")
}

// YAML highlights a YAML document.
func YAML(code string) (string, error) {
	return Colorize(code, "yaml")
}
