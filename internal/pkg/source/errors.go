package source

import "github.com/pkg/errors"

// ErrLineTooLong indicates a line that does not fit in a single response frame.
var ErrLineTooLong = errors.New("line too long")
