package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// VS Code dark palette.
const (
	vscodeForeground = "#D4D4D4"
	vscodeBackground = "#1E1E1E"
	vscodeKey        = "#9CDCFE"
	vscodeString     = "#CE9178"
	vscodeNumber     = "#B5CEA8"
	vscodeKeyword    = "#569CD6"
	vscodeComment    = "#6A9955"
)

// ReportDark is registered as "drminfo-dark" for JSON and YAML dumps.
var ReportDark = styles.Register(chroma.MustNewStyle("drminfo-dark", chroma.StyleEntries{
	chroma.Text:       vscodeForeground,
	chroma.Background: "bg:" + vscodeBackground,
	chroma.Comment:    vscodeComment,

	// JSON object keys lex as NameTag, YAML keys as NameTag or Keyword.
	chroma.NameTag:      vscodeKey,
	chroma.Name:         vscodeKey,
	chroma.NameVariable: vscodeKey,

	chroma.LiteralString: vscodeString,
	chroma.LiteralNumber: vscodeNumber,

	// true, false, null
	chroma.KeywordConstant: vscodeKeyword,
	chroma.Keyword:         vscodeKeyword,

	chroma.Punctuation: vscodeForeground,
	chroma.Operator:    vscodeForeground,
}))
