package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"lawdesk/internal/domain"
	"lawdesk/internal/service"
)

// MockImportService is a mock implementation of service.ImportService.
type MockImportService struct {
	mock.Mock
}

func (m *MockImportService) Preview(ctx context.Context, actor domain.Actor, file service.ImportFile) (*domain.PreviewData, error) {
	args := m.Called(ctx, actor, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PreviewData), args.Error(1)
}

func (m *MockImportService) Commit(ctx context.Context, actor domain.Actor, preview *domain.PreviewData) (*domain.UploadResult, error) {
	args := m.Called(ctx, actor, preview)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UploadResult), args.Error(1)
}

func (m *MockImportService) Import(ctx context.Context, actor domain.Actor, file service.ImportFile) (*domain.UploadResult, error) {
	args := m.Called(ctx, actor, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UploadResult), args.Error(1)
}

func (m *MockImportService) WriteTemplate(w io.Writer, format domain.FileType) error {
	args := m.Called(w, format)
	return args.Error(0)
}

func (m *MockImportService) WritePreview(w io.Writer, preview *domain.PreviewData, format domain.FileType) error {
	args := m.Called(w, preview, format)
	return args.Error(0)
}

func (m *MockImportService) WriteResults(w io.Writer, result *domain.UploadResult) error {
	args := m.Called(w, result)
	return args.Error(0)
}
