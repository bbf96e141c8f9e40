package client

import "github.com/pkg/errors"

// ErrNoServerAddr indicates that the client was not given a server address.
var ErrNoServerAddr = errors.New("no server address")

// ErrNoReferenceFile indicates that the client was not given a reference file.
var ErrNoReferenceFile = errors.New("no reference file")
