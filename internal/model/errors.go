package model

import (
	"errors"
	"fmt"
)

// ErrInvalidInput wraps every caller contract violation on the forward pass.
var ErrInvalidInput = errors.New("invalid input")

// ErrEmptySequence is returned when Forward receives no tokens.
var ErrEmptySequence = fmt.Errorf("%w: empty token sequence", ErrInvalidInput)

// ConfigError reports a shape mismatch between a Config and a weight set.
// It is only ever raised at construction time.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("model config: %s: %s", e.Field, e.Reason)
}

func sequenceTooLong(got, max int) error {
	return fmt.Errorf("%w: sequence length %d exceeds max %d", ErrInvalidInput, got, max)
}
