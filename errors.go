/*
Copyright 2011-2026 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package kodec

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies an error returned by the io package. Callers inspect it
// with KindOf rather than matching on error strings.
type Kind int

const (
	// InvalidArgument means a caller-supplied parameter is out of range
	// or inconsistent (e.g. a block size or job count outside its
	// allowed bounds).
	InvalidArgument Kind = iota + 1

	// StreamClosed means an operation was attempted on a stream that has
	// already been closed.
	StreamClosed

	// EndOfStream means a read was attempted past the last block.
	EndOfStream

	// InputOutput wraps a lower-level I/O failure from the underlying
	// reader or writer.
	InputOutput

	// WriteHeader means the stream header could not be written.
	WriteHeader

	// WriteFile means a block could not be written to the output.
	WriteFile

	// ProcessBlock means a block-level transform or entropy stage
	// failed in a way that could not be recovered by falling back to an
	// uncoded copy.
	ProcessBlock

	// InvalidFormat means the bitstream does not match what this
	// implementation can decode (bad magic, unsupported version,
	// out-of-range block size or unknown codec in the header, block
	// checksum mismatch).
	InvalidFormat
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case StreamClosed:
		return "stream closed"
	case EndOfStream:
		return "end of stream"
	case InputOutput:
		return "input/output error"
	case WriteHeader:
		return "write header"
	case WriteFile:
		return "write file"
	case ProcessBlock:
		return "process block"
	case InvalidFormat:
		return "invalid format"
	default:
		return "unknown"
	}
}

// kindError pairs a Kind with the wrapped cause. Unwrap exposes the cause
// to errors.Is/errors.As; KindOf recovers the Kind.
type kindError struct {
	kind  Kind
	cause error
}

func (e *kindError) Error() string {
	if e.cause == nil {
		return e.kind.String()
	}

	return fmt.Sprintf("%s: %s", e.kind, e.cause)
}

func (e *kindError) Unwrap() error {
	return e.cause
}

func (e *kindError) Kind() Kind {
	return e.kind
}

// NewError builds a new error of the given kind with a formatted message.
func NewError(kind Kind, format string, args ...interface{}) error {
	return &kindError{kind: kind, cause: pkgerrors.Errorf(format, args...)}
}

// WrapError wraps cause with a Kind and a message. Returns nil if cause is
// nil, matching errors.Wrap's convention.
func WrapError(cause error, kind Kind, msg string) error {
	if cause == nil {
		return nil
	}

	return &kindError{kind: kind, cause: pkgerrors.Wrap(cause, msg)}
}

// KindOf returns the Kind attached to err, or 0 if err was not produced by
// NewError/WrapError.
func KindOf(err error) Kind {
	var ke *kindError

	if errors.As(err, &ke) {
		return ke.kind
	}

	return 0
}
