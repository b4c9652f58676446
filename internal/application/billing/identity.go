package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jhoicas/slipstream/internal/domain"
	"github.com/jhoicas/slipstream/pkg/jwt"
	"github.com/jhoicas/slipstream/pkg/wallet"
)

// IdentityUseCase resuelve la identidad del token del proveedor y sus preferencias de pago.
type IdentityUseCase struct {
	verifier *jwt.Verifier // nil sin clave pública: todo token queda como no verificado
	prefs    PreferencesSource
}

// NewIdentityUseCase construye el caso de uso.
func NewIdentityUseCase(verifier *jwt.Verifier, prefs PreferencesSource) *IdentityUseCase {
	return &IdentityUseCase{verifier: verifier, prefs: prefs}
}

// Resolve devuelve una identidad verificada o, si la firma no valida, una lectura no
// verificada. domain.ErrUnauthorized si el token no es legible.
func (uc *IdentityUseCase) Resolve(token string) (*jwt.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	id, err := jwt.Resolve(uc.verifier, token)
	if err != nil {
		if errors.Is(err, jwt.ErrAudience) {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
		}
		return nil, fmt.Errorf("%w: token ilegible", domain.ErrUnauthorized)
	}
	return &id, nil
}

// Preferences preferencias publicadas para la dirección o nombre; {"all"} si no hay.
func (uc *IdentityUseCase) Preferences(ctx context.Context, address string) (*Preferences, error) {
	address = strings.TrimSpace(address)
	if err := wallet.Validate(address); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidWallet, err)
	}
	p, err := uc.prefs.Preferences(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderError, err)
	}
	return p, nil
}
