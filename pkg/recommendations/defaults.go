package recommendations

import (
	"bytes"
	_ "embed"
)

//go:embed templates.yaml
var defaultTemplatesYAML []byte

// DefaultTemplates returns the built-in template library.
func DefaultTemplates() ([]Template, error) {
	return ParseTemplates(bytes.NewReader(defaultTemplatesYAML))
}
