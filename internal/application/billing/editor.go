package billing

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jhoicas/slipstream/internal/domain"
	"github.com/jhoicas/slipstream/internal/domain/codec"
	"github.com/jhoicas/slipstream/internal/domain/entity"
	"github.com/jhoicas/slipstream/pkg/jwt"
	"github.com/jhoicas/slipstream/pkg/wallet"
)

// Tipos de selección editables.
const (
	SelectionTokens = "tokens"
	SelectionChains = "chains"
)

// ValidationError errores por campo del formulario; envuelve domain.ErrNotShareable.
type ValidationError struct {
	Fields entity.FormErrors
}

func (e *ValidationError) Error() string { return domain.ErrNotShareable.Error() }

func (e *ValidationError) Unwrap() error { return domain.ErrNotShareable }

// EditorUseCase operaciones del emisor mientras arma la factura.
type EditorUseCase struct{}

// NewEditorUseCase construye el caso de uso.
func NewEditorUseCase() *EditorUseCase { return &EditorUseCase{} }

// NewDraft crea una factura vacía. Con identidad del proveedor prellena el emisor con el
// nombre ENS o la dirección; la wallet de cobro solo se fija si la identidad está verificada.
func (uc *EditorUseCase) NewDraft(id *jwt.Identity) *entity.Invoice {
	inv := entity.NewInvoice()
	if id == nil {
		return inv
	}
	inv.CompanyInfo.Details = id.DisplayName()
	if id.Verified() && wallet.Validate(id.Subject) == nil {
		inv.WalletAddress = id.Subject
	}
	inv.SelectedTokens = knownSelection(id.Tokens, entity.IsKnownToken)
	inv.SelectedChains = knownSelection(id.Chains, entity.IsKnownChain)
	return inv
}

// knownSelection conserva solo miembros de catálogo; sin ninguno, {"All"}.
func knownSelection(values []string, known func(string) bool) entity.Selection {
	out := entity.Selection{}
	for _, v := range entity.NormalizeSelection(values).Concrete() {
		if known(v) && !out.Contains(v) {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return entity.AllSelection()
	}
	return out
}

// Share valida la factura y devuelve el token y el link compartible base?data=token.
//
// Retorna:
//   - domain.ErrReadOnly        si la factura ya está pagada.
//   - *ValidationError          (errors.Is ErrNotShareable) si faltan campos o no hay línea completa.
//   - domain.ErrInvalidWallet   si la wallet informada no es válida.
//   - domain.ErrInvalidInput    si la selección trae tokens o cadenas fuera de catálogo.
func (uc *EditorUseCase) Share(inv *entity.Invoice, base *url.URL) (string, *url.URL, error) {
	if inv == nil || base == nil || !base.IsAbs() {
		return "", nil, fmt.Errorf("%w: factura y URL base absoluta requeridas", domain.ErrInvalidInput)
	}
	if inv.IsPaid {
		return "", nil, domain.ErrReadOnly
	}
	if fe := inv.Validate(); fe.HasErrors() || !inv.IsShareable() {
		return "", nil, &ValidationError{Fields: fe}
	}
	if strings.TrimSpace(inv.WalletAddress) != "" {
		if err := wallet.Validate(inv.WalletAddress); err != nil {
			return "", nil, fmt.Errorf("%w: %v", domain.ErrInvalidWallet, err)
		}
	}
	if err := validateCatalog(inv.SelectedTokens, entity.IsKnownToken); err != nil {
		return "", nil, err
	}
	if err := validateCatalog(inv.SelectedChains, entity.IsKnownChain); err != nil {
		return "", nil, err
	}

	token, err := codec.Encode(inv)
	if err != nil {
		return "", nil, err
	}
	return token, codec.ShareURL(base, token), nil
}

// SanitizeAmount devuelve el monto canónico y su presentación.
func (uc *EditorUseCase) SanitizeAmount(input string) (amount, display string) {
	amount = entity.SanitizeAmount(input)
	return amount, entity.FormatAmount(amount)
}

// ToggleSelection aplica una (de)selección respetando el invariante del centinela.
func (uc *EditorUseCase) ToggleSelection(kind string, current []string, value string) (entity.Selection, error) {
	var known func(string) bool
	switch kind {
	case SelectionTokens:
		known = entity.IsKnownToken
	case SelectionChains:
		known = entity.IsKnownChain
	default:
		return nil, fmt.Errorf("%w: tipo de selección %q", domain.ErrInvalidInput, kind)
	}
	if !entity.IsSentinel(value) && !known(value) {
		return nil, fmt.Errorf("%w: %q no está en el catálogo", domain.ErrInvalidInput, value)
	}
	return entity.NormalizeSelection(current).Toggle(value), nil
}

func validateCatalog(s entity.Selection, known func(string) bool) error {
	for _, v := range s.Concrete() {
		if !known(v) {
			return fmt.Errorf("%w: %q no está en el catálogo", domain.ErrInvalidInput, v)
		}
	}
	return nil
}

// FieldErrors extrae los errores por campo si err es de validación.
func FieldErrors(err error) (entity.FormErrors, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields, true
	}
	return entity.FormErrors{}, false
}
