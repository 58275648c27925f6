// Package language maps file extensions to tree-sitter grammars.
package language

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	zig "github.com/tree-sitter-grammars/tree-sitter-zig/bindings/go"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Grammar handles are shared; sitter.Language is immutable once built.
var (
	langPython     = sitter.NewLanguage(python.Language())
	langRust       = sitter.NewLanguage(rust.Language())
	langZig        = sitter.NewLanguage(zig.Language())
	langCpp        = sitter.NewLanguage(cpp.Language())
	langC          = sitter.NewLanguage(c.Language())
	langTypescript = sitter.NewLanguage(typescript.LanguageTypescript())
	langTSX        = sitter.NewLanguage(typescript.LanguageTSX())
	langJavascript = sitter.NewLanguage(javascript.Language())
)

// ForExtension returns the grammar for a file extension, or nil when the
// extension is unsupported. The recognised set is fixed.
func ForExtension(ext string) *sitter.Language {
	switch ext {
	case "py":
		return langPython
	case "rs":
		return langRust
	case "zig":
		return langZig
	case "cpp", "cc", "cxx":
		return langCpp
	case "c", "h":
		return langC
	case "ts", "mts", "cts":
		return langTypescript
	case "tsx":
		return langTSX
	case "js", "jsx", "mjs", "mjsx", "cjs", "cjsx":
		return langJavascript
	default:
		return nil
	}
}

// Normalize collapses extension aliases for index-type lookup:
// cc/cxx→cpp, h→c, jsx→js.
func Normalize(ext string) string {
	switch ext {
	case "cc", "cxx":
		return "cpp"
	case "h":
		return "c"
	case "jsx":
		return "js"
	default:
		return ext
	}
}
