package indexer

import (
	"fmt"

	ierrors "github.com/Aman-CERP/textindexer/internal/errors"
)

// ErrorKind classifies a per-file indexing problem.
type ErrorKind int

const (
	// WordsSkipped means some words exceeded the length limit. The rest of
	// the file was indexed; Detail holds the number of skipped words.
	WordsSkipped ErrorKind = iota
	// FileTooBig means admission control rejected the file while nothing
	// else was in flight. Detail holds the file size.
	FileTooBig
	// NonUtf8File means the content is not UTF-8 text.
	NonUtf8File
	// UnknownError covers any other failure. Detail holds the error text.
	UnknownError
)

// errorKinds lists every kind, in declaration order.
var errorKinds = [...]ErrorKind{WordsSkipped, FileTooBig, NonUtf8File, UnknownError}

// ErrorKinds returns every kind in declaration order.
func ErrorKinds() []ErrorKind {
	return errorKinds[:]
}

// String returns a human-readable representation of the kind.
func (k ErrorKind) String() string {
	switch k {
	case WordsSkipped:
		return "WORDS_SKIPPED"
	case FileTooBig:
		return "FILE_TOO_BIG"
	case NonUtf8File:
		return "NON_UTF8_FILE"
	case UnknownError:
		return "UNKNOWN_ERROR"
	default:
		return "UNKNOWN"
	}
}

// code maps the kind to its structured error code.
func (k ErrorKind) code() string {
	switch k {
	case WordsSkipped:
		return ierrors.ErrCodeWordsSkipped
	case FileTooBig:
		return ierrors.ErrCodeFileTooBig
	case NonUtf8File:
		return ierrors.ErrCodeNonUTF8File
	default:
		return ierrors.ErrCodeIndexFailed
	}
}

// IndexError reports a problem with one file.
type IndexError struct {
	Kind   ErrorKind
	Detail string
	File   string
}

// Error implements the error interface.
func (e IndexError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.File)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.File, e.Detail)
}

// Err converts e into a structured error for CLI and log formatting.
func (e IndexError) Err() *ierrors.Error {
	var msg string
	switch e.Kind {
	case WordsSkipped:
		msg = fmt.Sprintf("%s words too long to index in %s", e.Detail, e.File)
	case FileTooBig:
		msg = fmt.Sprintf("%s is too big to index with the memory available (%s)", e.File, e.Detail)
	case NonUtf8File:
		msg = fmt.Sprintf("%s is not UTF-8 text", e.File)
	default:
		msg = fmt.Sprintf("failed to index %s: %s", e.File, e.Detail)
	}

	err := ierrors.New(e.Kind.code(), msg, e).WithDetail("file", e.File)
	if e.Kind == FileTooBig {
		err.WithSuggestion("Free memory or index the file again once other files are done")
	}
	return err
}
