package llm

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

// Output is a decoded structured model response. Validate enforces the
// invariants the JSON schema alone cannot express (discriminated unions,
// defaults); struct tags cover field-level constraints.
type Output interface {
	Validate() error
}

// Schema describes one structured-output contract: the JSON schema document
// sent to (or described to) the backend, and a factory for the Go value the
// response decodes into.
type Schema struct {
	Name       string
	Definition json.RawMessage
	New        func() Output
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

func validateOutput(out Output) error {
	if err := structValidator.Struct(out); err != nil {
		return err
	}
	return out.Validate()
}
