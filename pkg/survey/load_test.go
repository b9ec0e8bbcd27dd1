package survey

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocumentsYAML(t *testing.T) {
	docs, err := ParseDocuments(strings.NewReader(`
id: doc-1
type: fra
industry: office
modules:
  - id: m1
    moduleKey: means_of_escape
    payload:
      ratings:
        means_of_escape: 2
`), FormatYAML)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "office", doc.IndustryKey)
	require.Len(t, doc.Modules, 1)
	assert.Equal(t, "doc-1", doc.Modules[0].DocumentID)

	p, err := DecodePayload("means_of_escape", doc.Modules[0].Payload)
	require.NoError(t, err)
	ratings := p.(FactorRatingsPayload).Ratings
	assert.EqualValues(t, 2, ratings["means_of_escape"])
}

func TestParseDocumentsJSONList(t *testing.T) {
	docs, err := ParseDocuments(strings.NewReader(`[
		{"id": "a", "type": "fra"},
		{"id": "b", "type": "re_survey"}
	]`), FormatJSON)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "b", docs[1].ID)
}

func TestParseDocumentsValidation(t *testing.T) {
	_, err := ParseDocuments(strings.NewReader(`{"type": "fra"}`), FormatJSON)
	assert.ErrorIs(t, err, ErrInvalidDocument)

	_, err = ParseDocuments(strings.NewReader(`{"id": "x"}`), FormatJSON)
	assert.ErrorIs(t, err, ErrInvalidDocument)

	_, err = ParseDocuments(strings.NewReader(`{`), FormatJSON)
	assert.Error(t, err)
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatForPath("a/b.YML"))
	assert.Equal(t, FormatYAML, FormatForPath("survey.yaml"))
	assert.Equal(t, FormatJSON, FormatForPath("survey.json"))
	assert.Equal(t, FormatJSON, FormatForPath("survey"))
}
