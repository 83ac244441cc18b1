package measure

import (
	"errors"
	"fmt"
)

// Repository errors.
var (
	ErrMetricNotFound = errors.New("metric not found")
	ErrMeasureExists  = errors.New("measure already exists")
	// ErrValueOverflow is a computed value that does not fit the kind of its metric.
	ErrValueOverflow = errors.New("value does not fit its metric")
)

// ConfigurationError reports a wiring defect, such as a formula bound to an
// unknown metric. It is never a property of the analyzed data.
type ConfigurationError struct {
	Err error
}

// Error implements error.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is, or wraps, a configuration error
// or a value kind mismatch.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	if errors.As(err, &ce) {
		return true
	}
	var km *KindMismatchError
	return errors.As(err, &km)
}
