package authz

import "github.com/spec-kit/helpdesk-service/internal/domain"

// Action names a guarded lifecycle operation.
type Action string

const (
	ActionAssign   Action = "assign"
	ActionDelegate Action = "delegate"
	ActionStart    Action = "start"
	ActionResolve  Action = "resolve"
	ActionValidate Action = "validate"
	ActionClose    Action = "close"
)

// Oracle answers whether a role may perform an action. It is consulted
// synchronously before any mutation; a deny short-circuits with no side
// effects.
type Oracle interface {
	Allows(role domain.Role, action Action) bool
}

// PolicyTable is an Oracle backed by an action to role-set map. The mapping
// is data, not code, so deployments can redraw the Secretary vs Adjoint/DSI
// capability split without touching the engine.
type PolicyTable struct {
	grants map[Action]map[domain.Role]struct{}
}

// NewPolicyTable builds an oracle from explicit grants.
func NewPolicyTable(grants map[Action][]domain.Role) *PolicyTable {
	table := &PolicyTable{grants: make(map[Action]map[domain.Role]struct{}, len(grants))}
	for action, roles := range grants {
		set := make(map[domain.Role]struct{}, len(roles))
		for _, role := range roles {
			set[role] = struct{}{}
		}
		table.grants[action] = set
	}
	return table
}

// DefaultPolicy mirrors the stock helpdesk role mapping: Secretary, Adjoint
// DSI, DSI and Admin are assignment-capable; delegation additionally needs
// Adjoint DSI/DSI/Admin; technicians work and resolve; creators validate.
func DefaultPolicy() *PolicyTable {
	return NewPolicyTable(map[Action][]domain.Role{
		ActionAssign:   {domain.RoleSecretary, domain.RoleAdjointDSI, domain.RoleDSI, domain.RoleAdmin},
		ActionDelegate: {domain.RoleAdjointDSI, domain.RoleDSI, domain.RoleAdmin},
		ActionStart:    {domain.RoleTechnician, domain.RoleAdjointDSI, domain.RoleDSI, domain.RoleAdmin},
		ActionResolve:  {domain.RoleTechnician, domain.RoleAdjointDSI, domain.RoleDSI, domain.RoleAdmin},
		ActionValidate: {domain.RoleUser, domain.RoleTechnician, domain.RoleSecretary, domain.RoleAdjointDSI, domain.RoleDSI, domain.RoleAdmin},
	})
}

// Allows implements Oracle.
func (t *PolicyTable) Allows(role domain.Role, action Action) bool {
	set, ok := t.grants[action]
	if !ok {
		return false
	}
	_, ok = set[role]
	return ok
}
