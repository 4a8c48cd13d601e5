package middleware

import (
	"strings"
	"time"

	"go-cashbook-api/internal/repository"
	"go-cashbook-api/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// RequireAuth validates the bearer token against the user's current session
// and puts the user and company into the request locals
func RequireAuth(tokens *jwt.Manager, userRepo repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			// browsers cannot set headers on websocket upgrades
			if t := c.Query("token"); t != "" && strings.HasPrefix(c.Path(), "/ws") {
				authHeader = "Bearer " + t
			}
		}
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		user, err := userRepo.FindByID(claims.UserID)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "User not found"})
		}
		if !user.IsActive {
			return c.Status(401).JSON(fiber.Map{"error": "User account is inactive"})
		}
		if !user.OwnsSession(claims.TokenVersion) {
			return c.Status(401).JSON(fiber.Map{"error": "Session expired (logged in on another device)"})
		}
		if user.CompanyID != claims.CompanyID {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		c.Locals("user_id", claims.UserID.String())
		c.Locals("company_id", claims.CompanyID.String())
		c.Locals("user_email", claims.Email)
		c.Locals("user_name", claims.Name)
		c.Locals("role_code", claims.RoleCode)
		// privileges come from the database so revocations apply at once
		c.Locals("user_privileges", user.PrivilegeCodes())

		return c.Next()
	}
}

// RequirePrivilege checks if the authenticated user has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals("user_privileges").([]string)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No privileges found"})
		}

		for _, p := range privileges {
			if p == requiredPrivilege {
				return c.Next()
			}
		}

		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires '" + requiredPrivilege + "' privilege",
		})
	}
}

// RequireAnyPrivilege checks if the user has at least one of the specified privileges
func RequireAnyPrivilege(requiredPrivileges ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals("user_privileges").([]string)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No privileges found"})
		}

		for _, userPriv := range privileges {
			for _, reqPriv := range requiredPrivileges {
				if userPriv == reqPriv {
					return c.Next()
				}
			}
		}

		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires one of " + strings.Join(requiredPrivileges, ", ") + " privileges",
		})
	}
}

// RequireRole only lets users of the given role through
func RequireRole(roleCode string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if code, _ := c.Locals("role_code").(string); code != roleCode {
			return c.Status(403).JSON(fiber.Map{"error": "Forbidden: requires role " + roleCode})
		}
		return c.Next()
	}
}

// RequireActiveCompany blocks tenants that were deactivated or whose
// subscription is no longer usable. Platform admins pass.
func RequireActiveCompany(companyRepo repository.CompanyRepository, platformRole string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if code, _ := c.Locals("role_code").(string); code == platformRole {
			return c.Next()
		}
		id, err := companyIDFromLocals(c)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
		}

		company, err := companyRepo.FindByID(id)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Company not found"})
		}
		if !company.IsActive {
			return c.Status(403).JSON(fiber.Map{"error": "Company account is inactive"})
		}
		if company.Subscription == nil || !company.Subscription.Usable(time.Now()) {
			return c.Status(402).JSON(fiber.Map{"error": "Subscription is not active"})
		}
		return c.Next()
	}
}
