package state

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// recordSchema pins the shape of a current-version record. Validation runs
// after migration, so an older-but-well-formed record passes; a record whose
// fields carry the wrong types does not.
const recordSchema = `{
  "type": "object",
  "required": ["schema_version", "day_key", "trades_executed_today"],
  "properties": {
    "schema_version": {"type": "integer", "minimum": 0},
    "day_key": {"type": "string"},
    "trades_executed_today": {"type": "integer", "minimum": 0},
    "last_trade_at_ms": {"type": "integer", "minimum": 0},
    "channel_failures": {
      "type": "object",
      "additionalProperties": {"type": "integer", "minimum": 0}
    },
    "channel_disabled_until_ms": {
      "type": "object",
      "additionalProperties": {"type": "integer", "minimum": 0}
    },
    "content_day_key": {"type": "string"},
    "content_daily_count": {"type": "integer", "minimum": 0},
    "content_last_post_at_ms": {"type": "integer", "minimum": 0},
    "seen_fingerprints": {"type": "array", "items": {"type": "string"}},
    "last_posted_fingerprint": {"type": "string"}
  }
}`

var (
	schemaOnce     sync.Once
	schemaCompiled *jsonschema.Schema
	schemaErr      error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("record.json", strings.NewReader(recordSchema)); err != nil {
			schemaErr = err
			return
		}
		schemaCompiled, schemaErr = compiler.Compile("record.json")
	})
	return schemaCompiled, schemaErr
}

// validateRecord checks a migrated raw record against the pinned schema.
func validateRecord(raw map[string]any) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile state schema: %w", err)
	}
	if err := schema.Validate(raw); err != nil {
		return fmt.Errorf("%w: schema validation: %v", ErrCorruptState, err)
	}
	return nil
}
