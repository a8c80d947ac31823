package linecount

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
)

// ErrRead is returned when a file cannot be opened or read.
var ErrRead = errors.New("read source file")

const percent = 100

// Counts holds the line totals of one file. Total always equals
// Code + Comment + Blank.
type Counts struct {
	Total   int `json:"total_lines"   yaml:"total_lines"`
	Code    int `json:"code_lines"    yaml:"code_lines"`
	Comment int `json:"comment_lines" yaml:"comment_lines"`
	Blank   int `json:"blank_lines"   yaml:"blank_lines"`
}

// Add increments the counter matching category.
func (c *Counts) Add(category Category) {
	c.Total++

	switch category {
	case Code:
		c.Code++
	case Comment:
		c.Comment++
	case Blank:
		c.Blank++
	}
}

// Ratio returns the percentage of non-blank lines that are comments,
// rounded to one decimal. A file without code or comment lines yields 0.
func (c Counts) Ratio() float64 {
	nonBlank := c.Code + c.Comment
	if nonBlank == 0 {
		return 0
	}

	return math.Round(float64(c.Comment)*percent*10/float64(nonBlank)) / 10
}

// Scan classifies every line read from r and returns the totals together
// with the state after the last line. InBlockComment as the final state
// means the input ends inside an unterminated block comment.
func Scan(r io.Reader, syntax Syntax) (Counts, State, error) {
	var counts Counts

	classifier := NewClassifier(syntax)
	state := Normal
	reader := bufio.NewReader(r)

	for {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) && line == "" {
			break
		}

		if err != nil && !errors.Is(err, io.EOF) {
			return counts, state, err
		}

		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")

		var category Category

		category, state = classifier.Classify(line, state)
		counts.Add(category)

		if errors.Is(err, io.EOF) {
			break
		}
	}

	return counts, state, nil
}

// Profiler reads files from disk and counts their lines.
type Profiler struct {
	logger   *slog.Logger
	syntaxFn func(path string) Syntax
}

// ProfilerOption configures a Profiler.
type ProfilerOption func(*Profiler)

// WithLogger sets the logger used for unterminated block comment notices.
func WithLogger(logger *slog.Logger) ProfilerOption {
	return func(p *Profiler) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithSyntax forces one syntax for every file instead of detecting it by name.
func WithSyntax(syntax Syntax) ProfilerOption {
	return func(p *Profiler) {
		p.syntaxFn = func(string) Syntax { return syntax }
	}
}

// NewProfiler creates a Profiler. By default the comment syntax is picked
// per file with SyntaxFor.
func NewProfiler(opts ...ProfilerOption) *Profiler {
	p := &Profiler{
		logger:   slog.Default(),
		syntaxFn: SyntaxFor,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// ProfileFile counts the lines of the file at path. Open and read failures
// wrap ErrRead and keep the underlying error, so errors.Is(err, fs.ErrNotExist)
// identifies a file that is gone.
func (p *Profiler) ProfileFile(ctx context.Context, path string) (Counts, error) {
	f, err := os.Open(path)
	if err != nil {
		return Counts{}, fmt.Errorf("%w %s: %w", ErrRead, path, err)
	}
	defer f.Close()

	counts, state, err := Scan(f, p.syntaxFn(path))
	if err != nil {
		return Counts{}, fmt.Errorf("%w %s: %w", ErrRead, path, err)
	}

	if state == InBlockComment {
		p.logger.WarnContext(ctx, "unterminated block comment", slog.String("path", path))
	}

	return counts, nil
}

// ProfileString counts the lines of in-memory content named name.
func (p *Profiler) ProfileString(name, content string) Counts {
	counts, _, _ := Scan(strings.NewReader(content), p.syntaxFn(name))

	return counts
}
