package llm

import (
	"testing"
)

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		wantKey string
		wantErr bool
	}{
		{
			name:    "bare object",
			text:    `{"background": "Raised by wolves."}`,
			wantKey: "background",
		},
		{
			name:    "json fence",
			text:    "```json\n{\"background\": \"text\"}\n```",
			wantKey: "background",
		},
		{
			name:    "plain fence",
			text:    "```\n{\"background\": \"text\"}\n```",
			wantKey: "background",
		},
		{
			name:    "leading commentary",
			text:    "Here is the character you asked for:\n{\"background\": \"text\"}",
			wantKey: "background",
		},
		{
			name:    "trailing commentary",
			text:    "{\"background\": \"text\"}\nLet me know if you want changes.",
			wantKey: "background",
		},
		{
			name:    "surrounding whitespace",
			text:    "  \n {\"background\": \"text\"} \n ",
			wantKey: "background",
		},
		{
			name:    "not json at all",
			text:    "I cannot help with that.",
			wantErr: true,
		},
		{
			name:    "malformed json",
			text:    `{"background": "text"`,
			wantErr: true,
		},
		{
			name:    "json array not object",
			text:    `["a", "b"]`,
			wantErr: true,
		},
		{
			name:    "empty",
			text:    "",
			wantErr: true,
		},
	}

	for _, tc := range cases {
		resp, err := ExtractJSONObject(tc.text)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%s: expected error, got %v", tc.name, resp)
			} else if !IsInvalidResponseError(err) {
				t.Errorf("%s: expected invalid-response error, got %v", tc.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
			continue
		}
		if _, ok := resp[tc.wantKey]; !ok {
			t.Errorf("%s: expected key %q in %v", tc.name, tc.wantKey, resp)
		}
	}
}
