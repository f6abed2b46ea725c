// Package access maps API keys to roles and roles to what they may do.
package access

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"hotelbook/internal/config"
)

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleDeskClerk  Role = "desk_clerk"
	RoleSupervisor Role = "supervisor"
)

type Capability string

const (
	CanBook     Capability = "book"
	CanCancel   Capability = "cancel"
	CanCheckIn  Capability = "check_in"
	CanPurge    Capability = "purge"
	CanDiscount Capability = "discount"
	CanAnalyze  Capability = "analyze"
)

// Capability sets per role. Roles are flat sets, not a hierarchy.
var capabilities = map[Role]map[Capability]bool{
	RoleCustomer: {
		CanBook:   true,
		CanCancel: true,
	},
	RoleDeskClerk: {
		CanBook:    true,
		CanCancel:  true,
		CanCheckIn: true,
		CanPurge:   true,
	},
	RoleSupervisor: {
		CanBook:     true,
		CanCancel:   true,
		CanCheckIn:  true,
		CanPurge:    true,
		CanDiscount: true,
		CanAnalyze:  true,
	},
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := capabilities[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Can reports whether the role holds a capability.
func (r Role) Can(c Capability) bool {
	return capabilities[r][c]
}

// Service resolves API keys to roles.
type Service struct {
	keys   map[string]Role
	logger zerolog.Logger
}

// NewService builds the key table. Entries with an empty key are skipped.
func NewService(keys []config.APIKeyConfig, logger zerolog.Logger) (*Service, error) {
	s := &Service{
		keys:   make(map[string]Role, len(keys)),
		logger: logger.With().Str("component", "access").Logger(),
	}
	for i, k := range keys {
		if k.Key == "" {
			continue
		}
		role, err := ParseRole(k.Role)
		if err != nil {
			return nil, fmt.Errorf("api_keys[%d]: %w", i, err)
		}
		s.keys[k.Key] = role
	}
	if len(s.keys) == 0 {
		s.logger.Warn().Msg("no api keys configured, every request will be denied")
	}
	return s, nil
}

// Authenticate returns the role of an API key.
func (s *Service) Authenticate(key string) (Role, error) {
	role, ok := s.keys[key]
	if !ok || key == "" {
		return "", &AccessDeniedError{Reason: "invalid api key"}
	}
	return role, nil
}

// Require authenticates the key and checks that its role holds c.
func (s *Service) Require(key string, c Capability) (Role, error) {
	role, err := s.Authenticate(key)
	if err != nil {
		return "", err
	}
	if !role.Can(c) {
		s.logger.Info().Str("role", string(role)).Str("capability", string(c)).Msg("access denied")
		return role, &AccessDeniedError{Reason: fmt.Sprintf("role %s cannot %s", role, c)}
	}
	return role, nil
}

// AccessDeniedError is returned when a caller lacks a key or a capability.
type AccessDeniedError struct {
	Reason string
}

func (e *AccessDeniedError) Error() string {
	return e.Reason
}

// IsAccessDenied checks if error is access denied.
func IsAccessDenied(err error) bool {
	var denied *AccessDeniedError
	return errors.As(err, &denied)
}
