package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockGalleryCache struct {
	mock.Mock
}

func (m *MockGalleryCache) GetGallery(ctx context.Context) ([]byte, bool, error) {
	args := m.Called(ctx)
	data, _ := args.Get(0).([]byte)
	return data, args.Bool(1), args.Error(2)
}

func (m *MockGalleryCache) GalleryVersion(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGalleryCache) SetGallery(ctx context.Context, version int64, data []byte) (bool, error) {
	args := m.Called(ctx, version, data)
	return args.Bool(0), args.Error(1)
}

func (m *MockGalleryCache) InvalidateGallery(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockGalleryCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockGalleryCache) Close() error {
	args := m.Called()
	return args.Error(0)
}
