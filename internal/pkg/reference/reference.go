// Package reference checks lines received from a server against a local file.
package reference

import (
	"linecat/internal/pkg/protocol"
	"linecat/internal/pkg/source"

	"github.com/pkg/errors"
)

// Set is the uppercased lines of a reference file.
type Set map[string]struct{}

// Load reads the file at path into a Set.
func Load(path string) (Set, error) {
	lines, err := source.ReadLines(path)
	if err != nil {
		return nil, errors.Wrap(err, "read reference file failed")
	}
	set := make(Set, len(lines))
	for _, line := range lines {
		set[protocol.Upper(line)] = struct{}{}
	}
	return set, nil
}

// Contains reports whether line is in the set, ignoring ASCII case.
func (s Set) Contains(line string) bool {
	_, ok := s[protocol.Upper(line)]
	return ok
}

// Contains loads the reference file at path and reports whether it holds line, ignoring ASCII case.
// The file is read on every call so that edits are seen by the next check.
func Contains(path, line string) (bool, error) {
	set, err := Load(path)
	if err != nil {
		return false, err
	}
	return set.Contains(line), nil
}
