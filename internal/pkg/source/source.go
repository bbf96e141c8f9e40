// Package source implements the line source served by the server.
//
// A line source is an ordered sequence of lines and a cursor pointing at the
// next line to hand out. When the cursor runs past the last line it wraps to
// the first one. A FileSource snapshots its file when opened and reads the
// file again every time it wraps, so edits made while the server is running
// are picked up at the start of the next cycle.
package source

import (
	"bufio"
	"os"
	"sync"

	"linecat/internal/pkg/protocol"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// Source hands out lines one at a time, wrapping around at the end.
type Source interface {
	Next() (string, error)
}

// FileSource is a Source backed by a newline-delimited text file.
type FileSource struct {
	path   string
	lines  []string
	cursor int
	mu     sync.Mutex
}

// Open creates a FileSource and loads its first snapshot.
func Open(path string) (*FileSource, error) {
	s := &FileSource{
		path: path,
	}
	if err := s.Reload(); err != nil {
		return nil, errors.Wrap(err, "load line source failed")
	}
	return s, nil
}

// ReadLines reads every line of the file at path.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, protocol.NewError(protocol.FileUnavailable, errors.Wrapf(err, "open %s failed", path))
	}
	defer f.Close()
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, protocol.NewError(protocol.FileUnavailable, errors.Wrapf(err, "read %s failed", path))
	}
	return lines, nil
}

// Reload replaces the snapshot with the current contents of the file and
// resets the cursor. The previous snapshot is kept if the file cannot be read.
func (s *FileSource) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reload()
}

func (s *FileSource) reload() error {
	lines, err := ReadLines(s.path)
	if err != nil {
		return err
	}
	for i, line := range lines {
		if len(line) > protocol.MaxLineLength {
			return protocol.NewError(protocol.FileUnavailable, errors.Wrapf(ErrLineTooLong, "%s:%d is %d bytes", s.path, i+1, len(line)))
		}
	}
	s.lines = lines
	s.cursor = 0
	return nil
}

// Next returns the line at the cursor and advances it. Once every line has
// been handed out the file is read again and the cursor wraps to the start.
// An empty file yields empty lines.
func (s *FileSource) Next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor >= len(s.lines) {
		if err := s.reload(); err != nil {
			logger.WithError(err).WithField("path", s.path).Warn("reload line source failed, keeping previous snapshot")
			s.cursor = 0
		}
	}
	if len(s.lines) == 0 {
		return "", nil
	}
	line := s.lines[s.cursor]
	s.cursor++
	return line, nil
}
