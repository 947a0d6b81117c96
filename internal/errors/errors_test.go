package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDerivesCategoryAndRetryable(t *testing.T) {
	tests := []struct {
		code      string
		category  Category
		retryable bool
	}{
		{ErrCodeConfigInvalid, CategoryConfig, false},
		{ErrCodeFileCorrupt, CategoryIO, false},
		{ErrCodeEmbedderUnavailable, CategoryNetwork, true},
		{ErrCodeInvalidTopK, CategoryValidation, false},
		{ErrCodeInternal, CategoryInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.retryable, err.Retryable)
		})
	}
}

func TestErrorFormat(t *testing.T) {
	err := New(ErrCodeQueryEmpty, "query must not be empty", nil)
	assert.Equal(t, "[ERR_402_QUERY_EMPTY] query must not be empty", err.Error())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrCodeEmbedderUnavailable, cause)
	require.NotNil(t, err)
	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, IsRetryable(err))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestIsMatchesByCode(t *testing.T) {
	a := New(ErrCodeFileNotFound, "missing a", nil)
	b := New(ErrCodeFileNotFound, "missing b", nil)
	assert.True(t, stderrors.Is(a, b))

	c := New(ErrCodeFileCorrupt, "broken", nil)
	assert.False(t, stderrors.Is(a, c))
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(New(ErrCodeInvalidTopK, "k must be >= 1", nil)))
	assert.False(t, IsValidation(New(ErrCodeInternal, "oops", nil)))
	assert.False(t, IsValidation(fmt.Errorf("plain")))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrCodeFileCorrupt, "unreadable", nil).
		WithDetail("file", "report.pdf").
		WithDetail("page", "3")
	assert.Equal(t, "report.pdf", err.Details["file"])
	assert.Equal(t, "3", err.Details["page"])
}
