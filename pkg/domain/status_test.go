package domain_test

import (
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want domain.Status
		ok   bool
	}{
		{"typed success", domain.StatusSuccess, domain.StatusSuccess, true},
		{"string running", "RUNNING", domain.StatusRunning, true},
		{"lowercase is invalid", "success", domain.StatusError, false},
		{"empty typed", domain.Status(""), domain.StatusError, false},
		{"wrong type", 42, domain.StatusError, false},
		{"nil", nil, domain.StatusError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := domain.ParseStatus(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, domain.StatusRunning.Terminal())
	assert.True(t, domain.StatusSuccess.Terminal())
	assert.True(t, domain.StatusFailure.Terminal())
	assert.True(t, domain.StatusError.Terminal())
}
