package protocol

import (
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const helloSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["type", "protocol_version", "account"],
  "properties": {
    "type": {"const": "HELLO"},
    "protocol_version": {"type": "string"},
    "account": {"type": "string", "minLength": 1, "maxLength": 64}
  }
}`

const cmdSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["type", "protocol_version", "id", "op"],
  "properties": {
    "type": {"const": "CMD"},
    "protocol_version": {"type": "string"},
    "id": {"type": "string", "minLength": 1, "maxLength": 64},
    "op": {
      "enum": [
        "rent", "extend_rent", "unrent",
        "buy", "sell", "set_resell", "resell",
        "preview_price", "list_regions", "region_status", "retry_restore"
      ]
    },
    "region": {"type": "string", "maxLength": 128},
    "duration_s": {"type": "integer", "minimum": 0},
    "price": {"type": "integer", "minimum": 0},
    "auto_renew": {"type": "boolean"},
    "group": {"type": "string", "maxLength": 64}
  }
}`

var (
	helloSchema = jsonschema.MustCompileString("hello.schema.json", helloSchemaJSON)
	cmdSchema   = jsonschema.MustCompileString("cmd.schema.json", cmdSchemaJSON)
)

func ValidateHello(v any) error { return helloSchema.Validate(v) }

func ValidateCmd(v any) error { return cmdSchema.Validate(v) }
