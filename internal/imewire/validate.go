package imewire

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var clientSchemaText string

var clientSchema = jsonschema.MustCompileString("imewire/schema.json", clientSchemaText)

// ParseClientMessage validates raw against the client message schema and
// decodes it. Anything the schema rejects never reaches the core.
func ParseClientMessage(raw []byte) (*Message, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("imewire: malformed JSON: %w", err)
	}
	if err := clientSchema.Validate(v); err != nil {
		return nil, fmt.Errorf("imewire: invalid message: %w", err)
	}

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("imewire: decode message: %w", err)
	}
	return &msg, nil
}
