package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestDefaultPolicyAssignmentCapability(t *testing.T) {
	policy := DefaultPolicy()

	for _, role := range []domain.Role{domain.RoleSecretary, domain.RoleAdjointDSI, domain.RoleDSI, domain.RoleAdmin} {
		assert.True(t, policy.Allows(role, ActionAssign), "%s is assignment-capable", role)
	}
	for _, role := range []domain.Role{domain.RoleUser, domain.RoleTechnician} {
		assert.False(t, policy.Allows(role, ActionAssign), "%s must not assign", role)
	}
}

func TestDefaultPolicyDelegationNarrowerThanAssignment(t *testing.T) {
	policy := DefaultPolicy()

	assert.False(t, policy.Allows(domain.RoleSecretary, ActionDelegate))
	assert.True(t, policy.Allows(domain.RoleAdjointDSI, ActionDelegate))
	assert.True(t, policy.Allows(domain.RoleDSI, ActionDelegate))
}

func TestUnknownActionDenied(t *testing.T) {
	policy := DefaultPolicy()
	assert.False(t, policy.Allows(domain.RoleAdmin, Action("purge")))
}

func TestCustomGrantsOverrideDefaults(t *testing.T) {
	policy := NewPolicyTable(map[Action][]domain.Role{
		ActionAssign: {domain.RoleDSI},
	})
	assert.True(t, policy.Allows(domain.RoleDSI, ActionAssign))
	assert.False(t, policy.Allows(domain.RoleSecretary, ActionAssign))
}
