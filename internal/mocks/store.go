package mocks

import (
	"io"

	"github.com/brettbedarf/fsapi"
	"github.com/stretchr/testify/mock"
)

// MockStore implements fsapi.Store for testing across packages
type MockStore struct {
	mock.Mock
}

var _ fsapi.Store = (*MockStore)(nil)

func (m *MockStore) Describe(p fsapi.Path) (*fsapi.Entry, error) {
	args := m.Called(p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fsapi.Entry), args.Error(1)
}

func (m *MockStore) List(p fsapi.Path) ([]fsapi.Entry, error) {
	args := m.Called(p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fsapi.Entry), args.Error(1)
}

func (m *MockStore) ReadText(p fsapi.Path, encoding string) (*fsapi.ReadResult, error) {
	args := m.Called(p, encoding)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fsapi.ReadResult), args.Error(1)
}

func (m *MockStore) OpenFile(p fsapi.Path) (io.ReadSeekCloser, *fsapi.Entry, error) {
	args := m.Called(p)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(io.ReadSeekCloser), args.Get(1).(*fsapi.Entry), args.Error(2)
}

func (m *MockStore) WriteText(p fsapi.Path, content, encoding string) error {
	return m.Called(p, content, encoding).Error(0)
}

func (m *MockStore) WriteBinary(p fsapi.Path, r io.Reader) (int64, error) {
	args := m.Called(p, r)

	// Handle function return types so tests can drain r
	if fn, ok := args.Get(0).(func(fsapi.Path, io.Reader) int64); ok {
		return fn(p, r), args.Error(1)
	}
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) CreateDirectory(p fsapi.Path) error {
	return m.Called(p).Error(0)
}

func (m *MockStore) Delete(p fsapi.Path) error {
	return m.Called(p).Error(0)
}

func (m *MockStore) Copy(src, dst fsapi.Path) error {
	return m.Called(src, dst).Error(0)
}

func (m *MockStore) Move(src, dst fsapi.Path) error {
	return m.Called(src, dst).Error(0)
}
