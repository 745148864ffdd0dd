package copygen

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"

	"campaign-dashboard/metrics"
)

const systemPrompt = `You write marketing email copy for partner campaigns.
Respond with a single JSON object, no prose, using exactly these keys:
{
  "subject_lines": ["..."],      // up to 3 options, each under 70 characters
  "preheader": "...",            // under 100 characters
  "hero_title": "...",
  "bullets": ["..."],            // up to 5, each under 90 characters
  "call_to_action": "...",       // under 40 characters
  "disclaimer": "..."
}`

const repairPrompt = `Your previous answer could not be parsed as JSON.
Return ONLY the JSON object described above, with no markdown fences and no
commentary.`

// Brief is the input of a copy generation request.
type Brief struct {
	Brief    string `json:"brief" binding:"required"`
	Partner  string `json:"partner,omitempty"`
	Theme    string `json:"theme,omitempty"`
	Geo      string `json:"geo,omitempty"`
	Tone     string `json:"tone,omitempty"`
	Language string `json:"language,omitempty"`
}

// ModelClient is the slice of the OpenAI client the generator needs.
type ModelClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Generator turns free-text campaign briefs into bounded EmailCopy blocks.
// Results are memoized by content hash in a bounded LRU+TTL cache; when the
// model output cannot be parsed even after one repair round, a deterministic
// template fallback is returned so callers always get usable copy.
type Generator struct {
	client ModelClient
	cache  *copyCache
}

// NewGenerator creates a Generator with a cache of the given capacity/TTL.
func NewGenerator(client ModelClient, cacheSize int, cacheTTL time.Duration) *Generator {
	return &Generator{
		client: client,
		cache:  newCopyCache(cacheSize, cacheTTL),
	}
}

// cacheKey hashes the full brief so equal requests hit the same entry.
func cacheKey(b Brief) string {
	payload, _ := json.Marshal(b)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func userPrompt(b Brief) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Brief: %s\n", strings.TrimSpace(b.Brief))
	if b.Partner != "" {
		fmt.Fprintf(&sb, "Partner: %s\n", b.Partner)
	}
	if b.Theme != "" {
		fmt.Fprintf(&sb, "Theme: %s\n", b.Theme)
	}
	if b.Geo != "" {
		fmt.Fprintf(&sb, "Target geo: %s\n", b.Geo)
	}
	if b.Tone != "" {
		fmt.Fprintf(&sb, "Tone: %s\n", b.Tone)
	}
	if b.Language != "" {
		fmt.Fprintf(&sb, "Language: %s\n", b.Language)
	}
	return sb.String()
}

// Generate produces bounded email copy for the brief. Bad model output never
// surfaces as an error; only an unusable brief or a failed API call on both
// attempts does.
func (g *Generator) Generate(ctx context.Context, brief Brief) (*EmailCopy, error) {
	if strings.TrimSpace(brief.Brief) == "" {
		return nil, fmt.Errorf("brief text is required")
	}

	key := cacheKey(brief)
	if cached, ok := g.cache.get(key); ok {
		metrics.CopyCacheHits.Inc()
		return cached, nil
	}
	metrics.CopyCacheMisses.Inc()

	prompt := userPrompt(brief)

	response, err := g.client.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("copy generation failed: %w", err)
	}

	raw, parseErr := parseCopy(response)
	if parseErr != nil {
		log.Warnf("Copy response unparseable, attempting repair: %v", parseErr)

		response, err = g.client.Complete(ctx, systemPrompt+"\n"+repairPrompt, prompt)
		if err != nil {
			return nil, fmt.Errorf("copy repair round failed: %w", err)
		}
		raw, parseErr = parseCopy(response)
	}

	if parseErr != nil {
		// Deterministic fallback: the dashboard always gets usable copy.
		// Fallbacks are not cached so a later retry can reach the model.
		log.Warnf("Copy repair failed, using template fallback: %v", parseErr)
		metrics.CopyFallbacksTotal.Inc()
		return fallbackCopy(brief), nil
	}

	result := canonicalize(raw, "model")
	g.cache.set(key, result)
	return result, nil
}

// fallbackCopy builds minimal deterministic copy straight from the brief.
func fallbackCopy(b Brief) *EmailCopy {
	headline := cleanLine(b.Brief, maxSubjectLen)
	if headline == "" {
		headline = "Your exclusive offer"
	}

	subject := headline
	if b.Partner != "" {
		subject = cleanLine(fmt.Sprintf("%s: %s", b.Partner, headline), maxSubjectLen)
	}

	return &EmailCopy{
		SubjectLines: []string{subject},
		HeroTitle:    headline,
		CallToAction: "Learn more",
		Source:       "fallback",
	}
}
