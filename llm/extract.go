package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject parses a model's textual payload into a JSON object.
//
// Models sometimes wrap JSON in a markdown code fence or prepend a line of
// commentary. A single such wrapping layer is tolerated and stripped; no
// further repair of malformed JSON is attempted. Returns an invalid-response
// error when no object can be parsed.
func ExtractJSONObject(text string) (ChatResponse, error) {
	content := strings.TrimSpace(text)

	// Strip one markdown fence layer: ```json ... ``` or ``` ... ```
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(content), &obj); err == nil {
		return ChatResponse(obj), nil
	}

	// Tolerate one leading/trailing non-JSON wrapper: take the outermost
	// object between the first '{' and the last '}'.
	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start >= 0 && end > start {
		var obj map[string]any
		if err := json.Unmarshal([]byte(content[start:end+1]), &obj); err == nil {
			return ChatResponse(obj), nil
		}
	}

	return nil, NewInvalidResponseError("invalid JSON response", nil)
}
