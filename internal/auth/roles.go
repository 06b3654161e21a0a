package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RequireRole ensures the principal holds one of the allowed roles. With no
// arguments it only requires authentication.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.User.Role]; !exists {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}

// StaffRoles lists every non-requester role.
func StaffRoles() []domain.Role {
	return []domain.Role{
		domain.RoleTechnician,
		domain.RoleSecretary,
		domain.RoleAdjointDSI,
		domain.RoleDSI,
		domain.RoleAdmin,
	}
}

// AssignmentRoles lists the assignment-capable roles; the authoritative
// check stays with the authz policy table, this only scopes routes.
func AssignmentRoles() []domain.Role {
	return []domain.Role{
		domain.RoleSecretary,
		domain.RoleAdjointDSI,
		domain.RoleDSI,
		domain.RoleAdmin,
	}
}
