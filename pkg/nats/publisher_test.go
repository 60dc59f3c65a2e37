package nats

import (
	"testing"

	"ai-chatbot-be/pkg/events"

	"github.com/stretchr/testify/assert"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "events.TURN_COMPLETED", Subject(events.TurnCompleted))
	assert.Equal(t, "events.TURN_ROLLED_BACK", Subject(events.TurnRolledBack))
}
