package requests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalWriteFileRequest(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		body    string
		want    *WriteFileRequest
		wantErr error
	}{
		{"content and encoding", `{"content":"hi","encoding":"latin1"}`, &WriteFileRequest{Content: "hi", Encoding: "latin1"}, nil},
		{"default encoding", `{"content":"hi"}`, &WriteFileRequest{Content: "hi"}, nil},
		{"empty content", `{"content":""}`, &WriteFileRequest{}, nil},
		{"missing content", `{"encoding":"utf-8"}`, nil, ErrMissingField},
		{"unknown field", `{"content":"x","mode":"0644"}`, nil, ErrMalformedBody},
		{"not json", `content=x`, nil, ErrMalformedBody},
		{"trailing data", `{"content":"x"} {}`, nil, ErrMalformedBody},
		{"wrong type", `{"content":42}`, nil, ErrMalformedBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := UnmarshalWriteFileRequest([]byte(tt.body))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnmarshalCreateDirectoryRequest(t *testing.T) {
	t.Parallel()

	got, err := UnmarshalCreateDirectoryRequest([]byte(`{"path":"a/b"}`))
	require.NoError(t, err)
	assert.Equal(t, "a/b", got.Path)

	_, err = UnmarshalCreateDirectoryRequest([]byte(`{}`))
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = UnmarshalCreateDirectoryRequest([]byte(``))
	assert.ErrorIs(t, err, ErrMalformedBody)
}
