package domain

// Passage is a trimmed, non-empty paragraph of the source document.
// Index is its position in the ordered passage sequence.
type Passage struct {
	Index int
	Text  string
}

// Vector is a fixed-dimension embedding.
type Vector []float32

// Zero returns a vector of dim zeros.
func Zero(dim int) Vector {
	return make(Vector, dim)
}

// IsZero reports whether every component of v is zero.
func (v Vector) IsZero() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// SearchResult is a passage together with its squared L2 distance to the query.
type SearchResult struct {
	Passage  Passage
	Distance float64
}

// Speaker identifies who produced a conversation turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is a single message in a conversation.
type Turn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
