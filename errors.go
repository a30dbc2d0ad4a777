package scmetab

import (
	"errors"
	"fmt"
)

// ConfigError reports a malformed or self-inconsistent run configuration:
// duplicate rule names, unparseable expressions, designs referencing unknown
// subsets. Configuration errors abort the whole run before any computation
// starts.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Msg
}

func NewConfigError(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// DataError reports metadata or expression data that is missing required
// columns or identifiers, or a subset that resolved to zero cells. Data
// errors are fatal for the affected subset only; sibling subsets continue.
type DataError struct {
	Msg string
}

func (e *DataError) Error() string {
	return "data error: " + e.Msg
}

func NewDataError(format string, args ...interface{}) *DataError {
	return &DataError{Msg: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether any error in err's chain is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsDataError reports whether any error in err's chain is a DataError.
func IsDataError(err error) bool {
	var de *DataError
	return errors.As(err, &de)
}
