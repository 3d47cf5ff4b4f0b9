package salvage

import "errors"

// Sentinel kinds for salvage errors.
var (
	ErrUnparsable = errors.New("unparsable oracle response")
)

// UnparsableResponseError reports that raw text contained no recoverable
// structured payload. The offending text is kept for diagnostics.
type UnparsableResponseError struct {
	Raw string
}

func (e *UnparsableResponseError) Error() string {
	return ErrUnparsable.Error()
}

// Is lets callers match with errors.Is(err, ErrUnparsable).
func (e *UnparsableResponseError) Is(target error) bool {
	return target == ErrUnparsable
}
