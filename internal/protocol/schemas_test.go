package protocol_test

import (
	"encoding/json"
	"testing"

	"landrush.gg/internal/protocol"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	validate := func(fn func(any) error, raw string) {
		t.Helper()
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if err := fn(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}
	reject := func(fn func(any) error, raw string) {
		t.Helper()
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if err := fn(v); err == nil {
			t.Fatalf("expected validation failure for %s", raw)
		}
	}

	validate(protocol.ValidateHello, `{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "account":"alice"
	}`)

	validate(protocol.ValidateCmd, `{
	  "type":"CMD",
	  "protocol_version":"1.0",
	  "id":"c1",
	  "op":"rent",
	  "region":"plot_12",
	  "duration_s":86400
	}`)

	validate(protocol.ValidateCmd, `{
	  "type":"CMD",
	  "protocol_version":"1.0",
	  "id":"c2",
	  "op":"list_regions",
	  "group":"market"
	}`)

	reject(protocol.ValidateHello, `{"type":"HELLO","protocol_version":"1.0"}`)
	reject(protocol.ValidateCmd, `{"type":"CMD","protocol_version":"1.0","id":"c3","op":"steal"}`)
	reject(protocol.ValidateCmd, `{"type":"CMD","protocol_version":"1.0","op":"rent"}`)
}
