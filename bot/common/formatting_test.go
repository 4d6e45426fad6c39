package common

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestFormatBalance(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{5900, "5,900"},
		{1234567, "1,234,567"},
		{-2500, "-2,500"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBalance(tt.in))
	}
}

func TestFormatStatus(t *testing.T) {
	assert.Equal(t, "Pending Result", FormatStatus("pending_result"))
	assert.Equal(t, "Awaiting Opponent", FormatStatus("awaiting_opponent"))
	assert.Equal(t, "Completed", FormatStatus("completed"))
	assert.Equal(t, "", FormatStatus(""))
}

func TestShortID(t *testing.T) {
	id := uuid.MustParse("6f1c2a90-1111-4222-8333-444455556666")
	assert.Equal(t, "6f1c2a90", ShortID(id))
}

func TestFormatDiscordTimestamp(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	assert.Equal(t, "<t:1700000000:R>", FormatDiscordTimestamp(ts, "R"))
}
