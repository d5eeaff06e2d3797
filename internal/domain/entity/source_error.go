package entity

import "fmt"

// SourceError is a failure local to one external data source. It is always
// absorbed at the adapter boundary; callers receive it as a typed value and
// must supply a fallback instead of propagating it as fatal.
type SourceError struct {
	Source  string // "rpc", "explorer", "marketplace", "pricefeed"
	Op      string
	Message string
	Err     error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Source, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Source, e.Op, e.Message)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewSourceError wraps err as a source-local failure.
func NewSourceError(source, op, message string, err error) *SourceError {
	return &SourceError{Source: source, Op: op, Message: message, Err: err}
}
