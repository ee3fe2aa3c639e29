package domain

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a required input column or field that is
// missing. It is the only error class that aborts a batch run.
type ConfigurationError struct {
	Source string // input the field was expected in, e.g. "master_list.csv"
	Field  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: required field %q missing from %s", e.Field, e.Source)
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
