package survey

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument is returned for a document missing its identity.
var ErrInvalidDocument = errors.New("invalid survey document")

// Format of a survey file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath infers the format from a file extension; anything other
// than .yaml or .yml is JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseDocuments reads one document or a list of documents. YAML input is
// converted to JSON first so module payloads keep a single wire shape.
func ParseDocuments(r io.Reader, format Format) ([]Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read survey: %w", err)
	}

	if format == FormatYAML {
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode yaml survey: %w", err)
		}
		if data, err = json.Marshal(v); err != nil {
			return nil, fmt.Errorf("convert yaml survey: %w", err)
		}
	}

	trimmed := strings.TrimSpace(string(data))
	var docs []Document
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, fmt.Errorf("decode survey list: %w", err)
		}
	} else {
		var doc Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode survey: %w", err)
		}
		docs = []Document{doc}
	}

	for i := range docs {
		if err := docs[i].Validate(); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
	}
	return docs, nil
}

// ParseDocumentsFile reads survey documents from path.
func ParseDocumentsFile(path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open survey: %w", err)
	}
	defer f.Close()
	return ParseDocuments(f, FormatForPath(path))
}

// Validate checks the fields the engine cannot work without and stamps the
// document ID onto its modules.
func (d *Document) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidDocument)
	}
	if d.Type == "" {
		return fmt.Errorf("%w: %s has no type", ErrInvalidDocument, d.ID)
	}
	for i := range d.Modules {
		if d.Modules[i].DocumentID == "" {
			d.Modules[i].DocumentID = d.ID
		}
	}
	return nil
}
