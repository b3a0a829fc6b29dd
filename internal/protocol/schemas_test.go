package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/emberwild/server/internal/protocol"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	roundTrip := func(v any) any {
		t.Helper()
		b, err := protocol.Encode(v)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		var out any
		if err := json.Unmarshal(b, &out); err != nil {
			t.Fatalf("re-decode: %v", err)
		}
		return out
	}

	registerSchema := compile("register.schema.json")
	inputsSchema := compile("inputs.schema.json")
	chatSchema := compile("chat.schema.json")
	chunkSchema := compile("chunk_update.schema.json")

	if err := registerSchema.Validate(roundTrip(protocol.RegisterMsg{
		Type:            protocol.TypeRegister,
		ProtocolVersion: protocol.Version,
		Account:         "tester",
		Password:        "hunter22",
		CharacterName:   "Brannic",
	})); err != nil {
		t.Fatalf("register sample: %v", err)
	}

	if err := inputsSchema.Validate(roundTrip(protocol.InputsMsg{
		Type:    protocol.TypeInputs,
		MoveDir: [2]float64{0.7, 0},
		LookDir: [3]float64{0, 1, 0},
		Jump:    true,
		Climb:   "up",
	})); err != nil {
		t.Fatalf("inputs sample: %v", err)
	}

	if err := chatSchema.Validate(roundTrip(protocol.ChatMsg{
		Type: protocol.TypeChat,
		From: 7,
		Text: "hello world",
	})); err != nil {
		t.Fatalf("chat sample: %v", err)
	}

	if err := chunkSchema.Validate(roundTrip(protocol.ChunkUpdateMsg{
		Type:    protocol.TypeChunkUpdate,
		Key:     [2]int32{3, -2},
		Payload: protocol.CompressChunk([]byte{1, 2, 3}),
	})); err != nil {
		t.Fatalf("chunk update sample: %v", err)
	}

	// Rejections: a register message without credentials must not validate.
	var bad any
	_ = json.Unmarshal([]byte(`{"type":"REGISTER","protocol_version":"1.0"}`), &bad)
	if err := registerSchema.Validate(bad); err == nil {
		t.Fatal("register without credentials should fail validation")
	}
}
