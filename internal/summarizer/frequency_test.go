package summarizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rani/internal/domain"
)

var _ domain.Summarizer = (*FrequencySummarizer)(nil)

const corpus = `Layanan Pengadilan Agama Medan

Pendaftaran perkara dibuka setiap hari kerja. Pendaftaran perkara dapat dilakukan secara online.

Kantin berada di lantai dua.

Biaya perkara dibayar saat pendaftaran perkara.`

func TestSummarizeKeepsDocumentOrder(t *testing.T) {
	s := NewFrequencySummarizer()

	got, err := s.Summarize(corpus, 2)
	require.NoError(t, err)

	first := strings.Index(got, "Pendaftaran perkara dibuka")
	second := strings.Index(got, "Biaya perkara")
	assert.GreaterOrEqual(t, first, 0)
	assert.Greater(t, second, first)
	assert.NotContains(t, got, "Kantin")
}

func TestSummarizeHeadingIsASentence(t *testing.T) {
	s := NewFrequencySummarizer()

	sentences := s.sentences(corpus)
	require.NotEmpty(t, sentences)
	assert.Equal(t, "Layanan Pengadilan Agama Medan", sentences[0])
	assert.Len(t, sentences, 5)
}

func TestSummarizeShortText(t *testing.T) {
	s := NewFrequencySummarizer()

	got, err := s.Summarize("Satu kalimat saja.", 0)
	require.NoError(t, err)
	assert.Equal(t, "Satu kalimat saja.", got)

	got, err = s.Summarize("  \n\n ", 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSummarizeIsDeterministic(t *testing.T) {
	s := NewFrequencySummarizer()

	a, err := s.Summarize(corpus, 3)
	require.NoError(t, err)
	b, err := s.Summarize(corpus, 3)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
