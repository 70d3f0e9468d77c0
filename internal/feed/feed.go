// Package feed parses newline-delimited danmaku streams.
//
// Each line is either a JSON object
//
//	{"text": "hello", "color": "#ff0000", "position": "top-scroll"}
//
// or plain text, shown with the reader's default color and position.
package feed

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jmylchreest/danmaq/internal/model"
)

// MaxLineLength is the longest accepted input line in bytes.
const MaxLineLength = 64 * 1024

// LineError reports a line that could not be parsed.
type LineError struct {
	Line  int
	Cause error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Cause)
}

func (e *LineError) Unwrap() error {
	return e.Cause
}

// Reader yields danmaku requests from a stream.
type Reader struct {
	scanner  *bufio.Scanner
	line     int
	color    model.Color
	position model.Position
	failed   bool
}

// NewReader creates a reader. Plain text lines use color and position.
func NewReader(r io.Reader, color model.Color, position model.Position) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), MaxLineLength)
	return &Reader{scanner: sc, color: color, position: position}
}

// Next returns the next request. Blank lines are skipped. A *LineError is
// returned for a malformed line and reading may continue; io.EOF ends the stream.
// An over-long line stops the scanner, so it is reported once followed by io.EOF.
func (r *Reader) Next() (model.Request, error) {
	if r.failed {
		return model.Request{}, io.EOF
	}
	for r.scanner.Scan() {
		r.line++
		text := strings.TrimSpace(r.scanner.Text())
		if text == "" {
			continue
		}
		if !strings.HasPrefix(text, "{") {
			return model.Request{Text: text, Color: r.color, Position: r.position}, nil
		}

		req, err := r.parseJSON(text)
		if err != nil {
			return model.Request{}, &LineError{Line: r.line, Cause: err}
		}
		return req, nil
	}

	if err := r.scanner.Err(); err != nil {
		r.failed = true
		if errors.Is(err, bufio.ErrTooLong) {
			return model.Request{}, &LineError{Line: r.line + 1, Cause: err}
		}
		return model.Request{}, err
	}
	return model.Request{}, io.EOF
}

// Line returns the number of the last line read.
func (r *Reader) Line() int {
	return r.line
}

// entry is the JSON line form. Color and position accept numbers or strings.
type entry struct {
	Text     string          `json:"text"`
	Color    json.RawMessage `json:"color"`
	Position json.RawMessage `json:"position"`
}

func (r *Reader) parseJSON(line string) (model.Request, error) {
	var e entry
	if err := json.Unmarshal([]byte(line), &e); err != nil {
		return model.Request{}, fmt.Errorf("invalid JSON: %w", err)
	}

	req := model.Request{Text: e.Text, Color: r.color, Position: r.position}

	if raw, ok := scalar(e.Color); ok {
		c, err := model.ParseColor(raw)
		if err != nil {
			return model.Request{}, err
		}
		req.Color = c
	}
	if raw, ok := scalar(e.Position); ok {
		p, err := model.ParsePosition(raw)
		if err != nil {
			return model.Request{}, err
		}
		req.Position = p
	}

	if err := req.Validate(); err != nil {
		return model.Request{}, err
	}
	return req, nil
}

// scalar unwraps a JSON string or number into its text form.
func scalar(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return string(raw), true
}
