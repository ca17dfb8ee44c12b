package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := New(CodeParseError, "bad dump")
	assert.Equal(t, "[PARSE_ERROR] bad dump", err.Error())

	wrapped := Wrap(CodeParseError, "bad dump", fmt.Errorf("line 3"))
	assert.Equal(t, "[PARSE_ERROR] bad dump: line 3", wrapped.Error())
}

func TestAppError_Is_MatchesByCode(t *testing.T) {
	err := Wrap(CodeParseError, "thread record", fmt.Errorf("overflow"))
	assert.True(t, errors.Is(err, ErrParseError))
	assert.False(t, errors.Is(err, ErrDatabaseError))
	assert.True(t, IsParseError(err))
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("io failure")
	err := Wrap(CodeDownloadError, "fetch dump", inner)
	assert.Equal(t, inner, errors.Unwrap(err))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, CodeUnsupportedFormat, GetErrorCode(ErrUnsupportedFormat))
	assert.Equal(t, CodeUnknown, GetErrorCode(fmt.Errorf("plain")))
}

func TestGetErrorMessage(t *testing.T) {
	assert.Equal(t, "unsupported dump format", GetErrorMessage(ErrUnsupportedFormat))
	assert.Equal(t, "plain", GetErrorMessage(fmt.Errorf("plain")))
	assert.Equal(t, "", GetErrorMessage(nil))
}
