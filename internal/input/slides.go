// Package input turns free text and uploaded text files into slide texts.
package input

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultMaxFileSize bounds uploaded text files.
const DefaultMaxFileSize = 1 << 20

var (
	ErrNoSlides     = errors.New("no slide text provided")
	ErrNotTextFile  = errors.New("not a .txt file")
	ErrReadFailed   = errors.New("failed to read file")
	ErrFileTooLarge = errors.New("file too large")
)

// ParseSlides splits text on newlines, trims every line and drops empty ones.
// Order is preserved.
func ParseSlides(text string) []string {
	lines := strings.Split(text, "\n")
	slides := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		slides = append(slides, line)
	}
	return slides
}

// RequireSlides is ParseSlides that fails with ErrNoSlides on empty input.
func RequireSlides(text string) ([]string, error) {
	slides := ParseSlides(text)
	if len(slides) == 0 {
		return nil, ErrNoSlides
	}
	return slides, nil
}

// IsTextFileName reports whether name has the .txt extension.
func IsTextFileName(name string) bool {
	return strings.HasSuffix(name, ".txt")
}

// LoadTextFile reads an uploaded plain-text file. maxSize <= 0 selects
// DefaultMaxFileSize. The name is checked before anything is read.
func LoadTextFile(name string, r io.Reader, maxSize int64) (string, error) {
	if !IsTextFileName(name) {
		return "", ErrNotTextFile
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	if int64(len(data)) > maxSize {
		return "", ErrFileTooLarge
	}
	return string(data), nil
}
