package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when content holds no decodable JSON value.
var ErrParseFailed = errors.New("failed to parse response")

var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// Parse decodes model output into T. It tries, in order: the whole
// content, the first fenced code block, and the outermost JSON object or
// array embedded in surrounding prose.
func Parse[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)

	candidates := []string{content}
	if m := fencePattern.FindStringSubmatch(content); m != nil {
		candidates = append(candidates, m[1])
	}
	if embedded, ok := outermost(content); ok {
		candidates = append(candidates, embedded)
	}

	for _, c := range candidates {
		if err := json.Unmarshal([]byte(c), &result); err == nil {
			return result, nil
		}
	}

	preview := content
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	return result, fmt.Errorf("%w: %s", ErrParseFailed, preview)
}

// outermost returns the span from the first '{' or '[' to the last
// matching closer.
func outermost(s string) (string, bool) {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", false
	}

	closer := "}"
	if s[start] == '[' {
		closer = "]"
	}

	end := strings.LastIndex(s, closer)
	if end <= start {
		return "", false
	}
	return s[start : end+1], true
}
