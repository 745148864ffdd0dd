package copygen

import "strings"

// Template bounds for generated email copy. Whatever the model returns is
// forced into these limits before it reaches the dashboard.
const (
	maxSubjectLines = 3
	maxSubjectLen   = 70
	maxPreheaderLen = 100
	maxBullets      = 5
	maxBulletLen    = 90
	maxCTALen       = 40
	maxDisclaimer   = 300
)

// EmailCopy is the bounded, template-constrained copy block returned to the
// dashboard.
type EmailCopy struct {
	SubjectLines []string `json:"subject_lines"`
	Preheader    string   `json:"preheader,omitempty"`
	HeroTitle    string   `json:"hero_title"`
	Bullets      []string `json:"bullets,omitempty"`
	CallToAction string   `json:"call_to_action"`
	Disclaimer   string   `json:"disclaimer,omitempty"`
	Source       string   `json:"source"`
}

// collapseWhitespace trims and squeezes every run of whitespace to one space.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateAtWord cuts s to at most limit runes, preferring the last word
// boundary so copy never ends mid-word.
func truncateAtWord(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	cut := string(runes[:limit])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}

func cleanLine(s string, limit int) string {
	return truncateAtWord(collapseWhitespace(s), limit)
}

func cleanList(items []string, maxItems, limit int) []string {
	out := make([]string, 0, maxItems)
	for _, item := range items {
		line := cleanLine(item, limit)
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == maxItems {
			break
		}
	}
	return out
}

// canonicalize maps a parsed model response into the bounded template:
// whitespace collapsed, word-boundary truncation, empties dropped, list
// lengths clamped.
func canonicalize(raw *rawCopy, source string) *EmailCopy {
	return &EmailCopy{
		SubjectLines: cleanList(raw.SubjectLines, maxSubjectLines, maxSubjectLen),
		Preheader:    cleanLine(raw.Preheader, maxPreheaderLen),
		HeroTitle:    cleanLine(raw.HeroTitle, maxSubjectLen),
		Bullets:      cleanList(raw.Bullets, maxBullets, maxBulletLen),
		CallToAction: cleanLine(raw.CallToAction, maxCTALen),
		Disclaimer:   cleanLine(raw.Disclaimer, maxDisclaimer),
		Source:       source,
	}
}
