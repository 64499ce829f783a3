package schema

// metaSchema is the JSON Schema every schema document must satisfy before
// typed decoding. It guards shape, not cross-field rules; those live in
// validateSchema.
const metaSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "fields"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "platform": {"type": "string"},
    "display_name": {"type": "string"},
    "fields": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {
        "type": "object",
        "properties": {
          "path": {"type": "string"},
          "compute": {"type": "string"},
          "script": {"type": "string"},
          "script_args": {"type": "object"},
          "script_timeout": {"type": "integer", "minimum": 1},
          "type": {"enum": ["str", "int", "float", "bool", "list", "dict"]},
          "fallback": {},
          "sentinel": {}
        },
        "additionalProperties": false
      }
    },
    "alerts": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "category", "condition", "message"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "category": {"type": "string", "minLength": 1},
          "severity": {"enum": ["CRITICAL", "WARNING", "INFO"]},
          "condition": {
            "type": "object",
            "required": ["op"],
            "properties": {"op": {"type": "string"}}
          },
          "message": {"type": "string"},
          "detail_fields": {"type": "array", "items": {"type": "string"}},
          "affected_items_field": {"type": "string"}
        },
        "additionalProperties": false
      }
    },
    "widgets": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "title", "type"],
        "properties": {
          "id": {"type": "string"},
          "title": {"type": "string"},
          "type": {"enum": ["key_value", "table", "alert_panel"]},
          "fields": {"type": "array"},
          "rows_field": {"type": "string"},
          "columns": {"type": "array"}
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`
