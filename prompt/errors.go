package prompt

import "fmt"

// TemplateNotFoundError indicates that no template file could be resolved for
// a request_type/provider combination and no default exists. Fatal for that
// request type: the system never fabricates fallback prompt content.
type TemplateNotFoundError struct {
	RequestType string
	Provider    string
}

func (e *TemplateNotFoundError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("no template found for request type %q (provider %q)", e.RequestType, e.Provider)
	}
	return fmt.Sprintf("no template found for request type %q", e.RequestType)
}

// TemplateError indicates a template file exists but is malformed: missing
// prompt text or an ill-formed embedded schema. Fatal, never cached.
type TemplateError struct {
	RequestType string
	Reason      string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("invalid template %q: %s", e.RequestType, e.Reason)
}
