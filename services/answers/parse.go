package answers

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseResponse extracts a JSON array of answer strings from a raw provider
// reply. Clean replies parse directly; replies wrapped in prose or code
// fences fall back to a bracket-depth scan that locates the first complete
// top-level array. Every element is normalized and blank elements are
// dropped.
func ParseResponse(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)

	var direct []any
	if err := json.Unmarshal([]byte(raw), &direct); err == nil {
		return collectAnswers(direct), nil
	}

	start := strings.IndexByte(raw, '[')
	if start == -1 {
		return nil, &ParseError{Raw: raw, Reason: "no JSON array in response"}
	}

	depth := 0
	end := -1
scan:
	for i := start; i < len(raw); i++ {
		switch raw[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				end = i
				break scan
			}
		}
	}
	if end == -1 {
		return nil, &ParseError{Raw: raw, Reason: "unterminated JSON array in response"}
	}

	var extracted []any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &extracted); err != nil {
		return nil, &ParseError{Raw: raw, Reason: fmt.Sprintf("invalid JSON array in response (%v)", err)}
	}
	return collectAnswers(extracted), nil
}

func collectAnswers(elements []any) []string {
	answers := make([]string, 0, len(elements))
	for _, el := range elements {
		text, ok := el.(string)
		if !ok {
			text = fmt.Sprint(el)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		answers = append(answers, Normalize(text))
	}
	return answers
}
