package input

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlides(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "blank lines and padding", text: "A\n\nB \n C", want: []string{"A", "B", "C"}},
		{name: "crlf", text: "Intro\r\nOutro\r\n", want: []string{"Intro", "Outro"}},
		{name: "only whitespace", text: " \n\t\n", want: []string{}},
		{name: "empty", text: "", want: []string{}},
		{name: "inner spaces kept", text: "  Slide 1: the goals  ", want: []string{"Slide 1: the goals"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSlides(tt.text))
		})
	}
}

func TestParseSlides_CountMatchesNonEmptyLines(t *testing.T) {
	text := "one\n\ntwo\nthree\n   \nfour"
	assert.Len(t, ParseSlides(text), 4)
}

func TestRequireSlides(t *testing.T) {
	_, err := RequireSlides("\n  \n")
	assert.ErrorIs(t, err, ErrNoSlides)

	slides, err := RequireSlides("x")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, slides)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestLoadTextFile(t *testing.T) {
	text, err := LoadTextFile("notes.txt", strings.NewReader("A\nB"), 0)
	require.NoError(t, err)
	assert.Equal(t, "A\nB", text)

	_, err = LoadTextFile("deck.pptx", strings.NewReader("A"), 0)
	assert.ErrorIs(t, err, ErrNotTextFile)

	_, err = LoadTextFile("notes.TXT", strings.NewReader("A"), 0)
	assert.ErrorIs(t, err, ErrNotTextFile)

	_, err = LoadTextFile("notes.txt", failingReader{}, 0)
	assert.ErrorIs(t, err, ErrReadFailed)

	_, err = LoadTextFile("notes.txt", strings.NewReader("12345"), 4)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	text, err = LoadTextFile("notes.txt", strings.NewReader("1234"), 4)
	require.NoError(t, err)
	assert.Equal(t, "1234", text)
}
