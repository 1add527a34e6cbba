package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeExpiry(t *testing.T) {
	issued := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, issued.Add(3540*time.Second), ComputeExpiry(issued, 3600))
	assert.Equal(t, issued.Add(DefaultTokenLifetime-ExpirySafetyMargin), ComputeExpiry(issued, 0))
	assert.Equal(t, issued.Add(7776000*time.Second-time.Minute), ComputeExpiry(issued, 7776000))
}

func TestToken_ValidAt_Boundary(t *testing.T) {
	exp := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	tok := &Token{AccessToken: "a", ExpiresAt: exp}

	assert.True(t, tok.ValidAt(exp.Add(-time.Nanosecond)))
	assert.False(t, tok.ValidAt(exp))
	assert.False(t, tok.ValidAt(exp.Add(time.Second)))

	var none *Token
	assert.False(t, none.ValidAt(exp))
}
