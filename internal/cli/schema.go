package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const schemaFilePrefix = "@"

// parseSchemaArgument interprets the --schema flag value. An empty value
// yields no schema, a leading @ loads the schema from a file, anything else
// is parsed as inline JSON.
func parseSchemaArgument(raw string) (map[string]any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	payload := []byte(trimmed)
	if strings.HasPrefix(trimmed, schemaFilePrefix) {
		schemaPath := strings.TrimPrefix(trimmed, schemaFilePrefix)
		fileContents, readErr := os.ReadFile(schemaPath)
		if readErr != nil {
			return nil, fmt.Errorf("read schema file %s: %w", schemaPath, readErr)
		}
		payload = fileContents
	}
	var schema map[string]any
	if unmarshalErr := json.Unmarshal(payload, &schema); unmarshalErr != nil {
		return nil, fmt.Errorf("parse schema JSON: %w", unmarshalErr)
	}
	return schema, nil
}
