package redisstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewClient(t *testing.T) {
	c := NewClient("redis://:secret@cache.internal:6380/2")
	defer c.Close()
	assert.Equal(t, "cache.internal:6380", c.Options().Addr)
	assert.Equal(t, 2, c.Options().DB)
	assert.Equal(t, "secret", c.Options().Password)

	bare := NewClient("localhost:6379")
	defer bare.Close()
	assert.Equal(t, "localhost:6379", bare.Options().Addr)
}
