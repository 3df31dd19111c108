package llm

import "errors"

var (
	ErrModelNotFound       = errors.New("model not found")
	ErrProviderUnavailable = errors.New("llm provider unavailable")
	ErrInferenceTimeout    = errors.New("llm inference timeout")
	ErrInvalidResponse     = errors.New("llm provider returned invalid response")
)
