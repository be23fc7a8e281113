package passage

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"rani/internal/domain"
)

// ErrSourceMissing is returned when the document source cannot be read.
var ErrSourceMissing = errors.New("document source missing")

const delimiter = "\n\n"

// Split breaks raw text into paragraphs on blank lines. Segments are trimmed,
// empty ones are dropped, and each survivor is numbered by output position.
func Split(raw string) []domain.Passage {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")

	var passages []domain.Passage
	for _, segment := range strings.Split(raw, delimiter) {
		text := strings.TrimSpace(segment)
		if text == "" {
			continue
		}

		passages = append(passages, domain.Passage{
			Index: len(passages),
			Text:  text,
		})
	}

	return passages
}

// Load reads the document at path and splits it into passages.
func Load(path string) ([]domain.Passage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceMissing, path, err)
	}

	return Split(string(data)), nil
}

// Texts returns the passage texts in order.
func Texts(passages []domain.Passage) []string {
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	return texts
}
