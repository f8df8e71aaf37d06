package fsapi

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_Classification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not exist", fs.ErrNotExist, ErrNotFound},
		{"path error not exist", &fs.PathError{Op: "open", Path: "/x", Err: syscall.ENOENT}, ErrNotFound},
		{"exist", fs.ErrExist, ErrAlreadyExists},
		{"not empty", syscall.ENOTEMPTY, ErrAlreadyExists},
		{"not a dir", &fs.PathError{Op: "open", Path: "/x", Err: syscall.ENOTDIR}, ErrNotADirectory},
		{"is a dir", &fs.PathError{Op: "open", Path: "/x", Err: syscall.EISDIR}, ErrNotAFile},
		{"permission", fs.ErrPermission, ErrIO},
		{"anything else", errors.New("disk on fire"), ErrIO},
		{"sentinel", fmt.Errorf("wrapped: %w", ErrInvalidOperation), ErrInvalidOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Wrap("op", "a/b", tt.err)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.want, KindOf(err))
		})
	}
}

func TestWrap_Nil(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Wrap("op", "a", nil))
}

func TestWrap_KeepsExistingKind(t *testing.T) {
	t.Parallel()

	inner := NewError("resolve", "../x", ErrConfinement, nil)
	err := Wrap("copy", "x", inner)
	assert.Same(t, inner, err)
}

func TestError_UnwrapsCause(t *testing.T) {
	t.Parallel()

	_, statErr := os.Stat(filepath.Join(t.TempDir(), "missing"))
	err := Wrap("describe", "missing", statErr)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	var pe *fs.PathError
	assert.ErrorAs(t, err, &pe)
	assert.Contains(t, err.Error(), "describe missing: not found")
}

func TestKindOf_Unclassified(t *testing.T) {
	t.Parallel()
	assert.Equal(t, ErrIO, KindOf(errors.New("boom")))
}
