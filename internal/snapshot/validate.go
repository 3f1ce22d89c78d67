// internal/snapshot/validate.go
package snapshot

import (
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"matching-engine/internal/common/errors"
	"matching-engine/internal/models"
)

// requestSchema guards externally submitted request documents before they
// are admitted into a run.
const requestSchema = `{
	"type": "object",
	"required": ["id", "category"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"category": {"type": "string", "minLength": 1},
		"title": {"type": "string"},
		"description": {"type": "string"},
		"requiredSkills": {
			"type": "array",
			"items": {"type": "string", "minLength": 1}
		},
		"budgetMin": {"type": "number", "minimum": 0},
		"budgetMax": {"type": "number", "minimum": 0},
		"estimatedHours": {"type": "number", "minimum": 0},
		"deadline": {"type": "string", "format": "date-time"},
		"complexityLevel": {"type": "integer", "minimum": 0, "maximum": 5},
		"urgencyLevel": {"type": "integer", "minimum": 0, "maximum": 5},
		"location": {"type": "string"},
		"onSiteOnly": {"type": "boolean"}
	},
	"anyOf": [
		{"required": ["requiredSkills"]},
		{"properties": {"budgetMax": {"exclusiveMinimum": 0}}, "required": ["budgetMax"]}
	]
}`

var compiledRequestSchema *gojsonschema.Schema

func init() {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(requestSchema))
	if err != nil {
		panic("invalid request schema: " + err.Error())
	}
	compiledRequestSchema = schema
}

// ValidateRequestDocument checks a raw request JSON document against the
// schema. Violations come back as a single INPUT_INVALID error listing
// every failed constraint.
func ValidateRequestDocument(doc []byte) error {
	result, err := compiledRequestSchema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return errors.NewInputInvalidError("request document is not valid JSON: " + err.Error())
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return errors.NewInputInvalidError(strings.Join(details, "; "))
}

// DecodeRequestDocument admits an externally supplied request document:
// schema validation first, then decoding into the snapshot model. A document
// that fails either step never reaches a run.
func DecodeRequestDocument(doc []byte) (models.RequestSpec, error) {
	if err := ValidateRequestDocument(doc); err != nil {
		return models.RequestSpec{}, err
	}
	var request models.RequestSpec
	if err := json.Unmarshal(doc, &request); err != nil {
		return models.RequestSpec{}, errors.NewInputInvalidError("request document does not decode: " + err.Error())
	}
	return request, nil
}
