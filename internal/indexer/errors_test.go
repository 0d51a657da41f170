package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	ierrors "github.com/Aman-CERP/textindexer/internal/errors"
)

func TestErrorKind_String(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{WordsSkipped, "WORDS_SKIPPED"},
		{FileTooBig, "FILE_TOO_BIG"},
		{NonUtf8File, "NON_UTF8_FILE"},
		{UnknownError, "UNKNOWN_ERROR"},
		{ErrorKind(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.String())
		})
	}
}

func TestErrorKinds_DeclarationOrder(t *testing.T) {
	assert.Equal(t, []ErrorKind{WordsSkipped, FileTooBig, NonUtf8File, UnknownError}, ErrorKinds())
}

func TestIndexError_Error(t *testing.T) {
	e := IndexError{Kind: FileTooBig, Detail: "1024", File: "/tmp/a"}
	assert.Equal(t, "FILE_TOO_BIG: /tmp/a (1024)", e.Error())

	e = IndexError{Kind: NonUtf8File, File: "/tmp/b"}
	assert.Equal(t, "NON_UTF8_FILE: /tmp/b", e.Error())
}

func TestIndexError_Err(t *testing.T) {
	tests := []struct {
		name     string
		in       IndexError
		code     string
		severity ierrors.Severity
	}{
		{"words skipped", IndexError{Kind: WordsSkipped, Detail: "3", File: "f"}, ierrors.ErrCodeWordsSkipped, ierrors.SeverityWarning},
		{"too big", IndexError{Kind: FileTooBig, Detail: "10", File: "f"}, ierrors.ErrCodeFileTooBig, ierrors.SeverityError},
		{"non utf8", IndexError{Kind: NonUtf8File, File: "f"}, ierrors.ErrCodeNonUTF8File, ierrors.SeverityError},
		{"unknown", IndexError{Kind: UnknownError, Detail: "boom", File: "f"}, ierrors.ErrCodeIndexFailed, ierrors.SeverityError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Err()

			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.severity, err.Severity)
			assert.Equal(t, "f", err.Details["file"])
			assert.ErrorIs(t, err, tt.in)
		})
	}
}

func TestIndexError_FileTooBigHasSuggestion(t *testing.T) {
	err := IndexError{Kind: FileTooBig, Detail: "10", File: "f"}.Err()
	assert.NotEmpty(t, err.Suggestion)
}
