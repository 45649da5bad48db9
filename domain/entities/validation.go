package entities

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a descriptor before the host accepts it. Command names
// are dispatched from whitespace-tokenized input, so a name containing
// whitespace could never be invoked.
func (d HandlerDescriptor) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("invalid handler descriptor: %w", err)
	}
	if strings.ContainsAny(d.Name, " \t\r\n") {
		return fmt.Errorf("invalid handler descriptor: name %q contains whitespace", d.Name)
	}
	return nil
}
