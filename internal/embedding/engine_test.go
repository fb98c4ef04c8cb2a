package embedding

import (
	"errors"
	"fmt"
	"testing"

	"github.com/openai/openai-go/v2"
)

func TestNewOpenAIEngineRequiresKey(t *testing.T) {
	if _, err := NewOpenAIEngine("", ""); err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestNewOpenAIEngineDefaults(t *testing.T) {
	eng, err := NewOpenAIEngine("sk-test", "")
	if err != nil {
		t.Fatalf("NewOpenAIEngine: %v", err)
	}
	if eng.Dimensions() != 1536 {
		t.Errorf("Dimensions() = %d, want 1536", eng.Dimensions())
	}
	if eng.Name() != "openai:text-embedding-3-small" {
		t.Errorf("Name() = %q", eng.Name())
	}
}

func TestValidateDimensions(t *testing.T) {
	if err := validateDimensions(make([]float32, 1536), 1536); err != nil {
		t.Errorf("unexpected error for matching dimensions: %v", err)
	}

	err := validateDimensions(make([]float32, 768), 1536)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("error = %v, want ErrDimensionMismatch", err)
	}
}

func TestIsTransientAPIError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", &openai.Error{StatusCode: 429}, true},
		{"server error", &openai.Error{StatusCode: 503}, true},
		{"bad request", &openai.Error{StatusCode: 400}, false},
		{"unauthorized", &openai.Error{StatusCode: 401}, false},
		{"network failure", fmt.Errorf("connection refused"), true},
		{"wrapped rate limit", fmt.Errorf("call failed: %w", &openai.Error{StatusCode: 429}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTransientAPIError(tt.err); got != tt.want {
				t.Errorf("isTransientAPIError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
