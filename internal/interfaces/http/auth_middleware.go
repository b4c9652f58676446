package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/slipstream/internal/application/dto"
	"github.com/jhoicas/slipstream/pkg/jwt"
)

// LocalIdentity key de Fiber Locals con la *jwt.Identity del token del proveedor.
const LocalIdentity = "identity"

// IdentityResolver resuelve el Bearer token del proveedor (billing.IdentityUseCase).
type IdentityResolver interface {
	Resolve(token string) (*jwt.Identity, error)
}

// IdentityMiddleware lee el Bearer opcional: sin header sigue anónimo; con header ilegible o
// de otra audiencia responde 401. Los tokens sin firma válida quedan como no verificados.
func IdentityMiddleware(resolver IdentityResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Next()
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		id, err := resolver.Resolve(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: err.Error()})
		}
		c.Locals(LocalIdentity, id)
		return c.Next()
	}
}

// RequireVerified exige una identidad con firma verificada (después de IdentityMiddleware).
func RequireVerified() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := GetIdentity(c)
		if id == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		if !id.Verified() {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "UNVERIFIED_IDENTITY", Message: "se requiere un token verificado del proveedor"})
		}
		return c.Next()
	}
}

// GetIdentity devuelve la identidad del contexto o nil si la petición es anónima.
func GetIdentity(c *fiber.Ctx) *jwt.Identity {
	id, _ := c.Locals(LocalIdentity).(*jwt.Identity)
	return id
}

func identityDTO(id *jwt.Identity) *dto.IdentityDTO {
	if id == nil {
		return nil
	}
	return &dto.IdentityDTO{
		Trust:       string(id.Trust),
		Subject:     id.Subject,
		ENS:         id.ENS,
		DisplayName: id.DisplayName(),
		Tokens:      id.Tokens,
		Chains:      id.Chains,
	}
}
