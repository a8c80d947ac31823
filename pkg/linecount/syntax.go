package linecount

import (
	"strings"

	"github.com/src-d/enry/v2"
)

// Syntax holds the comment markers of one language family.
type Syntax struct {
	Name         string   `json:"name"          yaml:"name"`
	LineComments []string `json:"line_comments" yaml:"line_comments"`
	BlockOpen    string   `json:"block_open"    yaml:"block_open"`
	BlockClose   string   `json:"block_close"   yaml:"block_close"`
}

// Built-in syntaxes.
var (
	// CStyle covers C, C++, Java, Go, JavaScript and their relatives.
	CStyle = Syntax{Name: "c-style", LineComments: []string{"//"}, BlockOpen: "/*", BlockClose: "*/"}
	// HashStyle covers shells, Python, Ruby, Perl, Makefiles and config formats.
	HashStyle = Syntax{Name: "hash", LineComments: []string{"#"}}
	// DashStyle covers SQL and Ada.
	DashStyle = Syntax{Name: "dash", LineComments: []string{"--"}, BlockOpen: "/*", BlockClose: "*/"}
	// LuaStyle covers Lua.
	LuaStyle = Syntax{Name: "lua", LineComments: []string{"--"}, BlockOpen: "--[[", BlockClose: "]]"}
	// HaskellStyle covers Haskell and Elm.
	HaskellStyle = Syntax{Name: "haskell", LineComments: []string{"--"}, BlockOpen: "{-", BlockClose: "-}"}
	// MarkupStyle covers HTML and XML.
	MarkupStyle = Syntax{Name: "markup", BlockOpen: "<!--", BlockClose: "-->"}
	// AsmStyle covers assembly dialects using semicolon comments.
	AsmStyle = Syntax{Name: "asm", LineComments: []string{";"}}
)

// languageSyntax maps enry language names to their comment syntax.
// Languages absent from the map fall back to CStyle.
var languageSyntax = map[string]Syntax{
	"Shell":      HashStyle,
	"Python":     HashStyle,
	"Ruby":       HashStyle,
	"Perl":       HashStyle,
	"Makefile":   HashStyle,
	"CMake":      HashStyle,
	"YAML":       HashStyle,
	"TOML":       HashStyle,
	"R":          HashStyle,
	"Dockerfile": HashStyle,
	"SQL":        DashStyle,
	"PLSQL":      DashStyle,
	"PLpgSQL":    DashStyle,
	"SQLPL":      DashStyle,
	"TSQL":       DashStyle,
	"Ada":        DashStyle,
	"Lua":        LuaStyle,
	"Haskell":    HaskellStyle,
	"Elm":        HaskellStyle,
	"HTML":       MarkupStyle,
	"XML":        MarkupStyle,
	"Assembly":   AsmStyle,
}

// SyntaxFor picks the comment syntax for a file by its name.
func SyntaxFor(path string) Syntax {
	lang, safe := enry.GetLanguageByExtension(path)
	if !safe {
		if byName, _ := enry.GetLanguageByFilename(path); byName != "" {
			lang = byName
		}
	}

	if syntax, ok := languageSyntax[lang]; ok {
		return syntax
	}

	return CStyle
}

func (s Syntax) hasBlock() bool {
	return s.BlockOpen != "" && s.BlockClose != ""
}

func (s Syntax) startsWithLineComment(trimmed string) bool {
	for _, marker := range s.LineComments {
		if strings.HasPrefix(trimmed, marker) {
			return true
		}
	}

	return false
}

// indexLineComment returns the position of the earliest line comment marker, or -1.
func (s Syntax) indexLineComment(text string) int {
	first := -1

	for _, marker := range s.LineComments {
		at := strings.Index(text, marker)
		if at >= 0 && (first < 0 || at < first) {
			first = at
		}
	}

	return first
}
