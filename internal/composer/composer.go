package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"rani/internal/domain"
)

// WarningMarker prefixes every diagnostic returned in place of an answer.
const WarningMarker = "⚠️"

const (
	DefaultTemperature     float32 = 0.9
	DefaultMaxOutputTokens         = 4096
)

var ErrEmptyResponse = errors.New("empty response from generation service")

// Options are the fixed generation parameters of a deployment.
type Options struct {
	Temperature     float32
	MaxOutputTokens int
}

// Generator produces a single, complete (non-streamed) response to a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// Persona describes the character the assistant must keep.
type Persona struct {
	Name          string
	Institution   string
	DeclinePhrase string
}

// Composer builds grounded prompts and turns generation results into
// displayable answers.
type Composer struct {
	generator Generator
	persona   Persona
	opts      Options
	log       *zap.Logger
}

func New(generator Generator, persona Persona, opts Options, log *zap.Logger) *Composer {
	if opts.MaxOutputTokens <= 0 {
		opts.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Composer{
		generator: generator,
		persona:   persona,
		opts:      opts,
		log:       log.With(zap.String("component", "composer")),
	}
}

// Persona returns the persona the composer speaks as.
func (c *Composer) Persona() Persona { return c.persona }

// Compose asks the generation service for an answer to question grounded in
// the retrieved sources. It always returns a displayable string; failures
// come back as a diagnostic starting with WarningMarker.
func (c *Composer) Compose(ctx context.Context, question, sources string, history []domain.Turn) string {
	prompt := c.Prompt(question, sources, history)

	answer, err := c.generator.Generate(ctx, prompt, c.opts)
	if err == nil {
		answer = strings.TrimSpace(answer)
		if answer == "" {
			err = ErrEmptyResponse
		}
	}

	if err != nil {
		c.log.Error(err.Error(), zap.String("action", "compose"))
		return Diagnostic(err)
	}

	return answer
}

// Diagnostic renders err for display to the user.
func Diagnostic(err error) string {
	return fmt.Sprintf("%s An error occurred while contacting the generation service: %v", WarningMarker, err)
}

// IsDiagnostic reports whether answer is a diagnostic rather than a reply.
func IsDiagnostic(answer string) bool {
	return strings.HasPrefix(answer, WarningMarker)
}

// Prompt renders the full prompt. Sections appear in a fixed order: persona,
// refusal rules, chat history, source context, question, answer style.
func (c *Composer) Prompt(question, sources string, history []domain.Turn) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %q", c.persona.Name)
	if c.persona.Institution != "" {
		fmt.Fprintf(&b, ", the information service assistant of %s", c.persona.Institution)
	}
	b.WriteString(". You speak as the documents below: friendly, warm and a little playful. ")
	b.WriteString("Use the available context to answer the user's question as well as you can, ")
	b.WriteString("and always open with a short compliment before answering.\n")

	b.WriteString("Answer ONLY from the source documents. ")
	fmt.Fprintf(&b, "If none of the context is relevant to the question, reply exactly %q and stop. ", c.persona.DeclinePhrase)
	b.WriteString("Do not answer anything unrelated to the information provided. Never break character.\n")

	b.WriteString("=== CHAT HISTORY ===\n")
	b.WriteString(c.History(history))
	b.WriteString("\n")

	b.WriteString("=== SOURCE DOCUMENTS ===\n")
	b.WriteString(sources)
	b.WriteString("\n")

	b.WriteString("=== NEW QUESTION ===\n")
	b.WriteString(question)
	b.WriteString("\n")

	b.WriteString("Answer politely, concisely and in plain language, in the language the user writes in.\n")
	fmt.Fprintf(&b, "If the information is not found, answer:\n%q\n", c.persona.DeclinePhrase)
	b.WriteString("End the answer with an offer of further help.\n")

	return b.String()
}

// History renders turns as speaker-labelled lines, oldest first.
func (c *Composer) History(history []domain.Turn) string {
	lines := make([]string, len(history))
	for i, turn := range history {
		lines[i] = c.Label(turn.Speaker) + ": " + turn.Text
	}
	return strings.Join(lines, "\n")
}

// Label returns the display label of a speaker.
func (c *Composer) Label(s domain.Speaker) string {
	if s == domain.SpeakerUser {
		return "User"
	}
	return c.persona.Name
}
