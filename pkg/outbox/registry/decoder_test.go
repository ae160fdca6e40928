package registry

import (
	"encoding/json"
	"testing"

	"github.com/aislice/aislice-backend/pkg/enums"
)

func TestDecoderRegistry(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventDeliveryProgressed, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded map[string]string
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	})

	input := json.RawMessage(`{"progress":"picked_up"}`)
	output, err := reg.Decode(enums.EventDeliveryProgressed, 1, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outMap, ok := output.(map[string]string); !ok || outMap["progress"] != "picked_up" {
		t.Fatalf("unexpected output %+v", output)
	}
}

func TestDecoderRegistryUnknown(t *testing.T) {
	reg := NewDecoderRegistry()
	if _, err := reg.Decode(enums.EventOrderCreated, 3, json.RawMessage(`{}`)); err == nil {
		t.Fatalf("expected error for unregistered decoder")
	}
}
