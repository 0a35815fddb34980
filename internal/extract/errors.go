package extract

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// ErrNoDate is returned when none of the date patterns match.
var ErrNoDate = eris.New("extract: no date found")

// ValidationError reports a matched value that does not form a valid field,
// such as 2024-02-30. Callers skip the document and continue the run.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("extract: invalid %s %q", e.Field, e.Value)
	}
	return fmt.Sprintf("extract: invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
