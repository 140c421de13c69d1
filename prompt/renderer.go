package prompt

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

var (
	sectionPattern = regexp.MustCompile(`(?s)\{\{#(\w+)\}\}(.*?)\{\{/(\w+)\}\}`)
	varPattern     = regexp.MustCompile(`\{\{\s*([\w.]+)\s*\}\}`)
)

// Render substitutes context values into the template's prompts and returns
// the concrete system and user prompt strings.
//
// {{key}} placeholders are replaced with the context value; missing keys
// render as the empty string rather than erroring, so templates stay forward
// compatible with contexts that omit optional fields.
//
// {{#key}}...{{/key}} marks a repeated section: when context[key] is a
// non-empty array the enclosed block renders once per element with {{.}}
// bound to the element. An absent, empty, or falsy value omits the section.
func Render(t *Template, context map[string]any) (systemPrompt, userPrompt string) {
	return renderString(t.SystemPrompt, context), renderString(t.UserPrompt, context)
}

func renderString(text string, context map[string]any) string {
	expanded := sectionPattern.ReplaceAllStringFunc(text, func(match string) string {
		m := sectionPattern.FindStringSubmatch(match)
		open, body, closing := m[1], m[2], m[3]
		if open != closing {
			// Mismatched section tags render literally rather than guessing.
			return match
		}
		return renderSection(body, context[open], context)
	})

	return varPattern.ReplaceAllStringFunc(expanded, func(match string) string {
		key := varPattern.FindStringSubmatch(match)[1]
		value, ok := context[key]
		if !ok {
			return ""
		}
		return stringify(value)
	})
}

func renderSection(body string, value any, context map[string]any) string {
	if !truthy(value) {
		return ""
	}

	elements, isSequence := sequenceValues(value)
	if !isSequence {
		// Scalar truthy value: render the block once with "." bound to it.
		elements = []any{value}
	}

	var sb strings.Builder
	for _, elem := range elements {
		block := strings.ReplaceAll(body, "{{.}}", stringify(elem))
		sb.WriteString(renderString(block, context))
	}
	return sb.String()
}

// sequenceValues normalizes any slice or array value into []any.
func sequenceValues(value any) ([]any, bool) {
	if value == nil {
		return nil, false
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	default:
		if seq, ok := sequenceValues(value); ok {
			return len(seq) > 0
		}
		return true
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
