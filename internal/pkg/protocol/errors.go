package protocol

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failure so callers can report it without inspecting messages.
type Kind int

// Error kinds.
const (
	Unknown Kind = iota
	// ArgumentError is a wrong argument count or an unparsable argument.
	ArgumentError
	// FileUnavailable is a line source or reference file that cannot be read.
	FileUnavailable
	// ConnectionFailed is a dial, listen, accept, read or write failure on the socket.
	ConnectionFailed
	// ProtocolMismatch is a frame that does not follow the wire format, or a rejection from the server.
	ProtocolMismatch
	// TruncatedMessage is a frame cut short by the peer closing the connection.
	TruncatedMessage
)

func (k Kind) String() string {
	switch k {
	case ArgumentError:
		return "ArgumentError"
	case FileUnavailable:
		return "FileUnavailable"
	case ConnectionFailed:
		return "ConnectionFailed"
	case ProtocolMismatch:
		return "ProtocolMismatch"
	case TruncatedMessage:
		return "TruncatedMessage"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Error attaches a Kind to an underlying error.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError classifies err with the given kind. A nil err stays nil.
func NewError(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// ErrFrameTooLong indicates a frame without a delimiter within MaxMessageSize bytes.
var ErrFrameTooLong = errors.New("frame too long")

// ErrEmptyFrame indicates a frame holding only the delimiter where a status byte was expected.
var ErrEmptyFrame = errors.New("empty frame")

// ErrUnknownStatus indicates a response frame starting with an unrecognised status byte.
var ErrUnknownStatus = errors.New("unknown status byte")

// ErrRejected indicates the server answered with a rejection frame.
var ErrRejected = errors.New("request rejected")

// ErrInvalidLine indicates a line that cannot be carried in a single frame.
var ErrInvalidLine = errors.New("invalid line")
