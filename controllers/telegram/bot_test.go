package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data   string
		action string
		id     uint
		ok     bool
	}{
		{"withdraw_done_12", actionWithdrawDone, 12, true},
		{"verify_approve_7", actionVerifyApprove, 7, true},
		{"verify_reject_3", actionVerifyReject, 3, true},
		{"verify_reject_0", "", 0, false},
		{"verify_reject_", "", 0, false},
		{"verify_reject_x", "", 0, false},
		{"plan_basic_1", "", 0, false},
		{"12", "", 0, false},
		{"", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			action, id, ok := parseCallback(tt.data)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.action, action)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestCallbackDataRoundTrip(t *testing.T) {
	action, id, ok := parseCallback(callbackData(actionWithdrawDone, 42))
	assert.True(t, ok)
	assert.Equal(t, actionWithdrawDone, action)
	assert.Equal(t, uint(42), id)
}
