// Package linecount divides source lines into code, comment and blank
// categories and accumulates per-file totals.
//
// The classifier is purely lexical. It has no notion of string literals,
// so a comment marker inside a string is taken at face value. Block comments
// do not nest: the first close marker ends the block. Code disabled by
// conditional compilation (for example "#if 0") is counted as code.
package linecount

import "strings"

// Category is the classification of a single line.
type Category int

const (
	// Blank is a line holding only whitespace.
	Blank Category = iota
	// Comment is a line holding only comment text.
	Comment
	// Code is a line holding anything that is not comment or whitespace.
	Code
)

// String returns the lower-case name of the category.
func (c Category) String() string {
	switch c {
	case Blank:
		return "blank"
	case Comment:
		return "comment"
	case Code:
		return "code"
	default:
		return "unknown"
	}
}

// State is the scanner state carried from one line to the next.
type State int

const (
	// Normal means the next line starts outside any comment.
	Normal State = iota
	// InBlockComment means the next line starts inside an open block comment.
	InBlockComment
)

// String returns the name of the state.
func (s State) String() string {
	if s == InBlockComment {
		return "in_block_comment"
	}

	return "normal"
}

// Classifier classifies lines using one comment Syntax.
type Classifier struct {
	syntax Syntax
}

// NewClassifier returns a Classifier for the given syntax.
func NewClassifier(syntax Syntax) Classifier {
	return Classifier{syntax: syntax}
}

// Syntax returns the comment syntax the classifier recognizes.
func (c Classifier) Syntax() Syntax {
	return c.syntax
}

// Classify returns the category of line and the state for the following line.
func (c Classifier) Classify(line string, state State) (Category, State) {
	if state == InBlockComment && c.syntax.hasBlock() {
		closeAt := strings.Index(line, c.syntax.BlockClose)
		if closeAt < 0 {
			return Comment, InBlockComment
		}

		rest := line[closeAt+len(c.syntax.BlockClose):]
		if strings.TrimSpace(rest) == "" {
			return Comment, Normal
		}

		return c.Classify(rest, Normal)
	}

	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Blank, Normal
	}

	if c.syntax.hasBlock() && strings.HasPrefix(trimmed, c.syntax.BlockOpen) {
		body := trimmed[len(c.syntax.BlockOpen):]

		closeAt := strings.Index(body, c.syntax.BlockClose)
		if closeAt < 0 {
			return Comment, InBlockComment
		}

		return Comment, c.trailingState(body[closeAt+len(c.syntax.BlockClose):])
	}

	if c.syntax.startsWithLineComment(trimmed) {
		return Comment, Normal
	}

	return Code, c.trailingState(trimmed)
}

// trailingState walks the block markers in text and reports whether the
// line ends inside an unclosed block comment. A line comment marker that
// appears before the next block opener ends the walk.
func (c Classifier) trailingState(text string) State {
	if !c.syntax.hasBlock() {
		return Normal
	}

	for {
		openAt := strings.Index(text, c.syntax.BlockOpen)
		if openAt < 0 {
			return Normal
		}

		if lineAt := c.syntax.indexLineComment(text); lineAt >= 0 && lineAt < openAt {
			return Normal
		}

		text = text[openAt+len(c.syntax.BlockOpen):]

		closeAt := strings.Index(text, c.syntax.BlockClose)
		if closeAt < 0 {
			return InBlockComment
		}

		text = text[closeAt+len(c.syntax.BlockClose):]
	}
}
