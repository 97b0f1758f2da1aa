package export

// ConfigurationError reports a variable store that cannot be exported
// from: no mode collection, or a chosen collection missing a required
// light or dark mode. The message names what was expected and found.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

// NoDataError reports a run in which no variable survived filtering and
// per-mode resolution.
type NoDataError struct {
	Message string
}

func (e *NoDataError) Error() string { return e.Message }
