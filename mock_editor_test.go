package retouch

import (
	"context"
)

// MockEditor is a mock implementation of ImageEditor.
type MockEditor struct {
	EditFunc   func(ctx context.Context, image EncodedImage, instruction string, cfg *EditConfig) (*EditResult, error)
	ModelsFunc func() []ModelInfo
	CloseFunc  func() error

	// EditCalls counts Edit invocations, for asserting no-op guards.
	EditCalls int
}

func (m *MockEditor) Edit(ctx context.Context, image EncodedImage, instruction string, cfg *EditConfig) (*EditResult, error) {
	m.EditCalls++
	if m.EditFunc != nil {
		return m.EditFunc(ctx, image, instruction, cfg)
	}
	return &EditResult{}, nil
}

func (m *MockEditor) Models() []ModelInfo {
	if m.ModelsFunc != nil {
		return m.ModelsFunc()
	}
	return []ModelInfo{}
}

func (m *MockEditor) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
