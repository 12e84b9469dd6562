package sequence

import (
	"fmt"
)

// ConfigurationError reports a bad model configuration. It is returned
// while a simulation is being assembled, never once stepping has begun.
type ConfigurationError struct {
	msg string
}

func configErrorf(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{msg: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string { return e.msg }

// NumericalError reports that stepping produced a non-finite result or a
// degenerate solve. The run stops; the last committed state is kept.
type NumericalError struct {
	Step int
	msg  string
}

func numericalErrorf(step int, format string, args ...interface{}) *NumericalError {
	return &NumericalError{Step: step, msg: fmt.Sprintf(format, args...)}
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("step %d: %s", e.Step, e.msg)
}
