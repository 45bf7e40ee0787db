package scenario

import (
	"fmt"
	"strings"

	goyaml "github.com/goccy/go-yaml"
	"github.com/xeipuuv/gojsonschema"
)

// documentSchema describes the shape of a scenario file. Semantic checks
// such as rename values live in Definition.Validate.
const documentSchema = `{
  "type": "object",
  "required": ["name", "actions"],
  "additionalProperties": false,
  "properties": {
    "name": {"type": "string"},
    "description": {"type": "string"},
    "state": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string"},
        "count": {"type": "integer"}
      }
    },
    "actions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["type"],
        "additionalProperties": false,
        "properties": {
          "type": {"type": "string"},
          "value": {"type": "string"}
        }
      }
    },
    "script": {"type": "string"},
    "expect": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["path", "equals"],
        "additionalProperties": false,
        "properties": {
          "path": {"type": "string"},
          "equals": {}
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

func checkDocument(data []byte) error {
	jsonData, err := goyaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("parse YAML: %w", err)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(jsonData))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			msgs = append(msgs, re.String())
		}
		return fmt.Errorf("scenario document invalid: %s", strings.Join(msgs, "; "))
	}
	return nil
}
