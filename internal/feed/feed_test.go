package feed

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/danmaq/internal/model"
)

func readAll(t *testing.T, input string) ([]model.Request, []*LineError) {
	t.Helper()
	r := NewReader(strings.NewReader(input), model.ColorWhite, model.PositionTopScroll)

	var reqs []model.Request
	var errs []*LineError
	for {
		req, err := r.Next()
		if errors.Is(err, io.EOF) {
			return reqs, errs
		}
		var lineErr *LineError
		if errors.As(err, &lineErr) {
			errs = append(errs, lineErr)
			continue
		}
		require.NoError(t, err)
		reqs = append(reqs, req)
	}
}

func TestReader_PlainLines(t *testing.T) {
	reqs, errs := readAll(t, "hello\n\n   \nworld  \n")
	assert.Empty(t, errs)
	assert.Equal(t, []model.Request{
		{Text: "hello", Color: model.ColorWhite, Position: model.PositionTopScroll},
		{Text: "world", Color: model.ColorWhite, Position: model.PositionTopScroll},
	}, reqs)
}

func TestReader_JSONLines(t *testing.T) {
	input := strings.Join([]string{
		`{"text":"red","color":"#ff0000","position":"top-static"}`,
		`{"text":"num","color":4278190335,"position":5}`,
		`{"text":"defaults"}`,
		`{"text":"named","position":"Vertical"}`,
	}, "\n")

	reqs, errs := readAll(t, input)
	assert.Empty(t, errs)
	require.Len(t, reqs, 4)

	assert.Equal(t, model.Request{Text: "red", Color: 0xFF0000FF, Position: model.PositionTopStatic}, reqs[0])
	assert.Equal(t, model.Request{Text: "num", Color: 0xFF0000FF, Position: model.PositionBottomStatic}, reqs[1])
	assert.Equal(t, model.Request{Text: "defaults", Color: model.ColorWhite, Position: model.PositionTopScroll}, reqs[2])
	assert.Equal(t, model.PositionVertical, reqs[3].Position)
}

func TestReader_MalformedLinesContinue(t *testing.T) {
	input := strings.Join([]string{
		`{"text": broken`,
		`ok`,
		`{"text":"x","position":9}`,
		`{"text":"  "}`,
		`{"text":"y","color":"mauve"}`,
		`fine`,
	}, "\n")

	reqs, errs := readAll(t, input)
	require.Len(t, reqs, 2)
	assert.Equal(t, "ok", reqs[0].Text)
	assert.Equal(t, "fine", reqs[1].Text)

	require.Len(t, errs, 4)
	assert.Equal(t, 1, errs[0].Line)
	assert.Equal(t, 3, errs[1].Line)
	assert.ErrorIs(t, errs[1], model.ErrInvalidPosition)
	assert.ErrorIs(t, errs[2], model.ErrEmptyText)
	assert.Equal(t, 5, errs[3].Line)
	assert.Contains(t, errs[0].Error(), "line 1")
}

func TestReader_LineTooLong(t *testing.T) {
	input := "short\n" + strings.Repeat("a", MaxLineLength+1) + "\n"
	r := NewReader(strings.NewReader(input), model.ColorWhite, model.PositionTopScroll)

	req, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "short", req.Text)

	_, err = r.Next()
	var lineErr *LineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 2, lineErr.Line)
}

func TestReader_EndsAfterLineTooLong(t *testing.T) {
	input := strings.Repeat("a", MaxLineLength+1) + "\nnever read\n"
	r := NewReader(strings.NewReader(input), model.ColorWhite, model.PositionTopScroll)

	_, err := r.Next()
	var lineErr *LineError
	require.ErrorAs(t, err, &lineErr)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}
