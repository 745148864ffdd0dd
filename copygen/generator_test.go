package copygen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubModel returns scripted responses in order.
type stubModel struct {
	responses []string
	errs      []error
	calls     int
}

func (s *stubModel) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	i := s.calls
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	var resp string
	if i < len(s.responses) {
		resp = s.responses[i]
	}
	return resp, err
}

const validResponse = `{
	"subject_lines": ["Spring savings inside", "Don't miss March deals"],
	"preheader": "Up to 40% off for loyal customers",
	"hero_title": "March Madness Savings",
	"bullets": ["40% off selected plans", "Free onboarding"],
	"call_to_action": "Claim your discount",
	"disclaimer": "Offer valid until March 31."
}`

func TestGenerateParsesAndCanonicalizes(t *testing.T) {
	model := &stubModel{responses: []string{validResponse}}
	g := NewGenerator(model, 8, time.Hour)

	copyBlock, err := g.Generate(context.Background(), Brief{Brief: "spring promo for Acme"})
	require.NoError(t, err)

	assert.Equal(t, "model", copyBlock.Source)
	assert.Equal(t, []string{"Spring savings inside", "Don't miss March deals"}, copyBlock.SubjectLines)
	assert.Equal(t, "March Madness Savings", copyBlock.HeroTitle)
	assert.Equal(t, "Claim your discount", copyBlock.CallToAction)
	assert.Equal(t, 1, model.calls)
}

func TestGenerateUsesCache(t *testing.T) {
	model := &stubModel{responses: []string{validResponse}}
	g := NewGenerator(model, 8, time.Hour)
	brief := Brief{Brief: "spring promo", Partner: "Acme"}

	first, err := g.Generate(context.Background(), brief)
	require.NoError(t, err)

	second, err := g.Generate(context.Background(), brief)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, model.calls, "second call must be served from cache")

	// A different brief misses the cache.
	model.responses = append(model.responses, validResponse)
	_, err = g.Generate(context.Background(), Brief{Brief: "spring promo", Partner: "Globex"})
	require.NoError(t, err)
	assert.Equal(t, 2, model.calls)
}

func TestGenerateRepairsMarkdownFencedJSON(t *testing.T) {
	fenced := "Here is your copy:\n```json\n" + validResponse + "\n```"
	model := &stubModel{responses: []string{fenced}}
	g := NewGenerator(model, 8, time.Hour)

	copyBlock, err := g.Generate(context.Background(), Brief{Brief: "promo"})
	require.NoError(t, err)
	assert.Equal(t, "model", copyBlock.Source)
	// Fences are stripped during extraction, no repair round needed.
	assert.Equal(t, 1, model.calls)
}

func TestGenerateRetriesThenFallsBack(t *testing.T) {
	model := &stubModel{responses: []string{"sorry, I cannot", "still not json"}}
	g := NewGenerator(model, 8, time.Hour)

	copyBlock, err := g.Generate(context.Background(), Brief{Brief: "win back lapsed users", Partner: "Acme"})
	require.NoError(t, err)

	assert.Equal(t, 2, model.calls, "one repair round before falling back")
	assert.Equal(t, "fallback", copyBlock.Source)
	require.NotEmpty(t, copyBlock.SubjectLines)
	assert.Equal(t, "Acme: win back lapsed users", copyBlock.SubjectLines[0])
	assert.NotEmpty(t, copyBlock.CallToAction)

	// Fallbacks are not cached: the next call reaches the model again.
	model.responses = append(model.responses, validResponse)
	copyBlock, err = g.Generate(context.Background(), Brief{Brief: "win back lapsed users", Partner: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "model", copyBlock.Source)
}

func TestGenerateAPIFailure(t *testing.T) {
	model := &stubModel{errs: []error{errors.New("boom")}}
	g := NewGenerator(model, 8, time.Hour)

	_, err := g.Generate(context.Background(), Brief{Brief: "promo"})
	assert.Error(t, err)
}

func TestGenerateEmptyBrief(t *testing.T) {
	g := NewGenerator(&stubModel{}, 8, time.Hour)
	_, err := g.Generate(context.Background(), Brief{Brief: "   "})
	assert.Error(t, err)
}
