package modlib

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsErrorType(t *testing.T) {
	base := NewModError(ErrNotFound, "不存在", "x", nil)

	assert.True(t, IsErrorType(base, ErrNotFound))
	assert.False(t, IsErrorType(base, ErrIO))
	assert.False(t, IsErrorType(nil, ErrIO))
	assert.False(t, IsErrorType(errors.New("plain"), ErrIO))

	wrapped := fmt.Errorf("context: %w", base)
	assert.True(t, IsErrorType(wrapped, ErrNotFound))

	nested := NewModError(ErrIO, "外层", "y", base)
	assert.True(t, IsErrorType(nested, ErrIO))
	assert.True(t, IsErrorType(nested, ErrNotFound))

	joined := errors.Join(NewModError(ErrExternalToolMissing, "missing", "unrar", nil), errors.New("native failed"))
	assert.True(t, IsErrorType(joined, ErrExternalToolMissing))
	assert.True(t, IsErrorType(fmt.Errorf("wrap: %w", joined), ErrExternalToolMissing))
}

func TestModErrorMessage(t *testing.T) {
	cause := errors.New("disk full")
	err := NewModError(ErrIO, "写入失败", "/tmp/x", cause)
	assert.Contains(t, err.Error(), "写入失败")
	assert.Contains(t, err.Error(), "/tmp/x")
	assert.ErrorIs(t, err, cause)
}
