package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanDecide(t *testing.T) {
	tests := []struct {
		name    string
		status  ApprovalStatus
		wantErr error
	}{
		{name: "pending is decidable", status: StatusPending, wantErr: nil},
		{name: "approved is terminal", status: StatusApproved, wantErr: ErrAlreadyDecided},
		{name: "rejected is terminal", status: StatusRejected, wantErr: ErrAlreadyDecided},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := ApprovalRequest{Status: tt.status}
			err := req.CanDecide()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestParseDecision(t *testing.T) {
	status, err := ParseDecision("approved")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, status)

	status, err = ParseDecision("REJECTED")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, status)

	// Pending — не решение
	_, err = ParseDecision("Pending")
	assert.ErrorIs(t, err, ErrBadDecision)

	_, err = ParseDecision("cancelled")
	assert.ErrorIs(t, err, ErrBadDecision)
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("pending")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, status)

	status, err = ParseStatus("Approved")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, status)

	_, err = ParseStatus("done")
	assert.Error(t, err)
}

func TestUnknownUser(t *testing.T) {
	info := UnknownUser("user-42")
	assert.Equal(t, "user-42", info.UserID)
	assert.Equal(t, "Unknown User", info.Name)
	assert.Equal(t, "unknown@email.com", info.Email)
}

func TestCallerIsAdmin(t *testing.T) {
	admin := Caller{UserID: "a1", Roles: map[string]bool{RoleAdmin: true}}
	assert.True(t, admin.IsAdmin())

	user := Caller{UserID: "u1", Roles: map[string]bool{"User": true}}
	assert.False(t, user.IsAdmin())

	empty := Caller{UserID: "u2"}
	assert.False(t, empty.IsAdmin())
}
