package llm

import (
	"errors"
	"testing"

	"ai-chatbot-be/internal/pkg/apperror"

	"github.com/stretchr/testify/assert"
)

func TestValidateTurns(t *testing.T) {
	tests := []struct {
		name     string
		messages []Message
		wantErr  bool
	}{
		{"empty", nil, true},
		{"system role rejected", []Message{{Role: RoleSystem, Content: "x"}}, true},
		{"unknown role rejected", []Message{{Role: "model", Content: "x"}}, true},
		{"user and assistant", []Message{
			{Role: RoleUser, Content: "hi"},
			{Role: RoleAssistant, Content: "hello"},
			{Role: RoleUser, Content: "more"},
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTurns(tt.messages)
			if tt.wantErr {
				assert.True(t, errors.Is(err, apperror.ErrValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}
