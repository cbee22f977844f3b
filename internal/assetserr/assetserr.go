/*
Copyright 2014 The Perkeep Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package assetserr defines the error kinds shared by the asset
// management engine, so callers can decide how to react to a failure
// without string-matching error text.
package assetserr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	// NotFound means an asset id or checksum was not present.
	NotFound Kind = iota
	// Conflict means a checksum is already stored; Import does not
	// return this, it returns the existing asset instead.
	Conflict
	// Invalid means malformed input: a bad asset id, an unparsable
	// date, or bad query syntax.
	Invalid
	// Unsupported means the media family cannot be rendered into a
	// thumbnail or preview.
	Unsupported
	// IO means a filesystem or blob-store error.
	IO
	// Backend means a key-value store error.
	Backend
	// External means a transcoder or geocoder collaborator failed.
	// Callers usually degrade silently instead of propagating this.
	External
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case Conflict:
		return "conflict"
	case Invalid:
		return "invalid"
	case Unsupported:
		return "unsupported"
	case IO:
		return "io"
	case Backend:
		return "backend"
	case External:
		return "external"
	default:
		return "unknown"
	}
}

// Error is an error tagged with a Kind, optionally wrapping a cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an *Error of the given kind.
func New(k Kind, msg string) error {
	return &Error{Kind: k, Msg: msg}
}

// Newf is like New but with formatting.
func Newf(k Kind, format string, args ...interface{}) error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a Kind and a message.
func Wrap(k Kind, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, Msg: msg, Err: err}
}

// Is reports whether err carries the given Kind.
func Is(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}
