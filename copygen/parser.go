package copygen

import (
	"encoding/json"
	"errors"
	"strings"
)

// rawCopy is the shape the model is asked to return.
type rawCopy struct {
	SubjectLines []string `json:"subject_lines"`
	Preheader    string   `json:"preheader"`
	HeroTitle    string   `json:"hero_title"`
	Bullets      []string `json:"bullets"`
	CallToAction string   `json:"call_to_action"`
	Disclaimer   string   `json:"disclaimer"`
}

// extractJSONFromMarkdown extracts JSON from markdown code blocks. Models
// regularly wrap JSON in ``` fences despite being told not to.
func extractJSONFromMarkdown(response string) string {
	startMarker := "```"
	endMarker := "```"

	startIdx := strings.Index(response, startMarker)
	if startIdx == -1 {
		// No code block found, try to find JSON object directly
		startIdx = strings.Index(response, "{")
		if startIdx == -1 {
			return response
		}
		endIdx := strings.LastIndex(response, "}")
		if endIdx == -1 {
			return response
		}
		return strings.TrimSpace(response[startIdx : endIdx+1])
	}

	endIdx := strings.Index(response[startIdx+len(startMarker):], endMarker)
	if endIdx == -1 {
		return response
	}
	endIdx += startIdx + len(startMarker)

	content := response[startIdx+len(startMarker) : endIdx]

	// Remove the language identifier if present (e.g., "json")
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) > 0 && (strings.TrimSpace(lines[0]) == "json" || strings.TrimSpace(lines[0]) == "") {
		content = strings.Join(lines[1:], "\n")
	}

	return strings.TrimSpace(content)
}

// parseCopy parses the model response into a rawCopy and checks the fields a
// usable email cannot do without. Bound enforcement happens later, in
// canonicalization.
func parseCopy(response string) (*rawCopy, error) {
	cleaned := strings.TrimSpace(response)
	jsonContent := extractJSONFromMarkdown(cleaned)

	var result rawCopy
	if err := json.Unmarshal([]byte(jsonContent), &result); err != nil {
		return nil, errors.New("failed to parse JSON response: " + err.Error())
	}

	if len(result.SubjectLines) == 0 || strings.TrimSpace(result.SubjectLines[0]) == "" {
		return nil, errors.New("at least one subject line is required")
	}
	if strings.TrimSpace(result.HeroTitle) == "" {
		return nil, errors.New("hero_title is required")
	}
	if strings.TrimSpace(result.CallToAction) == "" {
		return nil, errors.New("call_to_action is required")
	}

	return &result, nil
}
