package access

import (
	"fmt"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelbook/internal/config"
)

func TestRoleCapabilities(t *testing.T) {
	tests := []struct {
		role    Role
		allowed []Capability
		denied  []Capability
	}{
		{RoleCustomer, []Capability{CanBook, CanCancel}, []Capability{CanCheckIn, CanPurge, CanDiscount, CanAnalyze}},
		{RoleDeskClerk, []Capability{CanBook, CanCheckIn, CanPurge}, []Capability{CanDiscount, CanAnalyze}},
		{RoleSupervisor, []Capability{CanBook, CanCheckIn, CanPurge, CanDiscount, CanAnalyze}, nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			for _, c := range tt.allowed {
				assert.True(t, tt.role.Can(c), c)
			}
			for _, c := range tt.denied {
				assert.False(t, tt.role.Can(c), c)
			}
		})
	}

	assert.False(t, Role("guest").Can(CanBook))
}

func TestService(t *testing.T) {
	svc, err := NewService([]config.APIKeyConfig{
		{Key: "c", Role: "customer"},
		{Key: "s", Role: "supervisor"},
		{Key: "", Role: "desk_clerk"},
	}, zerolog.New(io.Discard))
	require.NoError(t, err)

	role, err := svc.Authenticate("s")
	require.NoError(t, err)
	assert.Equal(t, RoleSupervisor, role)

	_, err = svc.Authenticate("")
	assert.True(t, IsAccessDenied(err))

	_, err = svc.Require("c", CanDiscount)
	assert.True(t, IsAccessDenied(err))
	assert.True(t, IsAccessDenied(fmt.Errorf("wrapped: %w", err)))

	role, err = svc.Require("c", CanBook)
	require.NoError(t, err)
	assert.Equal(t, RoleCustomer, role)
}

func TestNewService_UnknownRole(t *testing.T) {
	_, err := NewService([]config.APIKeyConfig{{Key: "k", Role: "owner"}}, zerolog.New(io.Discard))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_keys[0]")
}
