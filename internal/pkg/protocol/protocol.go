// Package protocol implements the linecat wire format.
//
// Every message is a frame terminated by a newline. A request frame holds the
// request token. A response frame holds a status byte followed by the payload:
//
//	LINE\n            client -> server
//	+NEXT LINE\n      server -> client, the next line of the source
//	-reason\n         server -> client, the request was rejected
//
// Frames are bounded by MaxMessageSize bytes including the delimiter. Readers
// reassemble frames across TCP segments, so a token written in several pieces
// is still read as one request.
package protocol

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const (
	// RequestToken is the only request a client can make.
	RequestToken = "LINE"
	// Delimiter terminates every frame.
	Delimiter byte = '\n'
	// MaxMessageSize bounds a frame, delimiter included.
	MaxMessageSize = 1000
	// MaxLineLength is the longest line that fits in a response frame.
	MaxLineLength = MaxMessageSize - 2

	// StatusLine prefixes a response carrying a line.
	StatusLine byte = '+'
	// StatusReject prefixes a response carrying a rejection reason.
	StatusReject byte = '-'
)

// RejectUnknownRequest is the rejection reason sent for any token other than RequestToken.
const RejectUnknownRequest = "unknown request"

// NewReader returns a reader sized for a single frame.
func NewReader(r io.Reader) *bufio.Reader {
	return bufio.NewReaderSize(r, MaxMessageSize)
}

// readFrame reads one frame and returns it without the delimiter.
func readFrame(r *bufio.Reader) ([]byte, error) {
	frame, err := r.ReadSlice(Delimiter)
	switch {
	case err == nil:
	case errors.Is(err, bufio.ErrBufferFull):
		return nil, NewError(ProtocolMismatch, ErrFrameTooLong)
	case errors.Is(err, io.EOF):
		return nil, NewError(TruncatedMessage, errors.Wrapf(io.ErrUnexpectedEOF, "read %d bytes without delimiter", len(frame)))
	default:
		return nil, NewError(ConnectionFailed, errors.Wrap(err, "read frame failed"))
	}
	if len(frame) > MaxMessageSize {
		return nil, NewError(ProtocolMismatch, ErrFrameTooLong)
	}
	out := make([]byte, len(frame)-1)
	copy(out, frame)
	return out, nil
}

func writeFrame(w io.Writer, frame []byte) error {
	if len(frame) > MaxMessageSize {
		return NewError(ProtocolMismatch, ErrFrameTooLong)
	}
	if _, err := w.Write(frame); err != nil {
		return NewError(ConnectionFailed, errors.Wrap(err, "write frame failed"))
	}
	return nil
}

// WriteRequest writes a request frame holding token.
func WriteRequest(w io.Writer, token string) error {
	if strings.IndexByte(token, Delimiter) >= 0 {
		return NewError(ProtocolMismatch, errors.Wrap(ErrInvalidLine, "token contains delimiter"))
	}
	return writeFrame(w, append([]byte(token), Delimiter))
}

// ReadRequest reads a request frame and returns its token.
// A trailing carriage return and NUL padding are ignored.
func ReadRequest(r *bufio.Reader) (string, error) {
	frame, err := readFrame(r)
	if err != nil {
		return "", err
	}
	frame = bytes.Trim(frame, "\x00")
	frame = bytes.TrimSuffix(frame, []byte{'\r'})
	return string(frame), nil
}

// Upper maps the ASCII letters of line to upper case and leaves every other
// byte untouched, so the result is always as long as line and non-UTF-8 text
// passes through unchanged.
func Upper(line string) string {
	b := []byte(line)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// ValidateLine reports whether line can be sent in a single response frame.
func ValidateLine(line string) error {
	if strings.IndexByte(line, Delimiter) >= 0 {
		return errors.Wrap(ErrInvalidLine, "line contains delimiter")
	}
	if len(line) > MaxLineLength {
		return errors.Wrapf(ErrInvalidLine, "line is %d bytes, max is %d", len(line), MaxLineLength)
	}
	return nil
}

// WriteLine writes a response frame carrying line.
func WriteLine(w io.Writer, line string) error {
	if err := ValidateLine(line); err != nil {
		return NewError(ProtocolMismatch, err)
	}
	frame := make([]byte, 0, len(line)+2)
	frame = append(frame, StatusLine)
	frame = append(frame, line...)
	frame = append(frame, Delimiter)
	return writeFrame(w, frame)
}

// WriteReject writes a rejection frame carrying reason.
func WriteReject(w io.Writer, reason string) error {
	if err := ValidateLine(reason); err != nil {
		return NewError(ProtocolMismatch, err)
	}
	frame := make([]byte, 0, len(reason)+2)
	frame = append(frame, StatusReject)
	frame = append(frame, reason...)
	frame = append(frame, Delimiter)
	return writeFrame(w, frame)
}

// ReadResponse reads a response frame and returns the line it carries.
// A rejection is returned as a ProtocolMismatch error wrapping ErrRejected.
func ReadResponse(r *bufio.Reader) (string, error) {
	frame, err := readFrame(r)
	if err != nil {
		return "", err
	}
	if len(frame) == 0 {
		return "", NewError(TruncatedMessage, ErrEmptyFrame)
	}
	switch frame[0] {
	case StatusLine:
		return string(frame[1:]), nil
	case StatusReject:
		return "", NewError(ProtocolMismatch, errors.Wrap(ErrRejected, string(frame[1:])))
	default:
		return "", NewError(ProtocolMismatch, errors.Wrapf(ErrUnknownStatus, "%q", frame[0]))
	}
}
