package jwt

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Trust nivel de confianza de una identidad.
type Trust string

const (
	// TrustVerified firma comprobada con la clave pública del proveedor.
	TrustVerified Trust = "verified"
	// TrustUnverified lectura sin firma: solo sirve para prellenar la UI, nunca para autorizar.
	TrustUnverified Trust = "unverified"
)

// ErrAudience el token fue emitido para otra app del proveedor.
var ErrAudience = errors.New("jwt: token emitido para otra aplicación")

// Claims payload del token del proveedor de pagos.
type Claims struct {
	jwt.RegisteredClaims
	ENS    string   `json:"ens,omitempty"`
	Tokens []string `json:"tokens,omitempty"`
	Chains []string `json:"chains,omitempty"`
}

// Identity identidad del pagador/emisor obtenida del token.
type Identity struct {
	Trust   Trust
	Subject string // dirección de la wallet
	ENS     string
	Tokens  []string // {"all"} si el token no trae preferencias
	Chains  []string
	Issuer  string
}

// Verified indica si la identidad se puede usar para autorizar.
func (id Identity) Verified() bool { return id.Trust == TrustVerified }

// DisplayName nombre ENS o, si no hay, la dirección.
func (id Identity) DisplayName() string {
	if id.ENS != "" {
		return id.ENS
	}
	return id.Subject
}

// Verifier valida tokens firmados por el proveedor (ES256/RS256).
type Verifier struct {
	key      interface{}
	audience string
}

// NewVerifier parsea la clave pública PEM (EC o RSA). audience vacío no comprueba aud.
func NewVerifier(publicKeyPEM, audience string) (*Verifier, error) {
	pem := []byte(strings.TrimSpace(publicKeyPEM))
	if len(pem) == 0 {
		return nil, fmt.Errorf("jwt: clave pública vacía")
	}
	if k, err := jwt.ParseECPublicKeyFromPEM(pem); err == nil {
		return &Verifier{key: k, audience: audience}, nil
	}
	k, err := jwt.ParseRSAPublicKeyFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("jwt: clave pública inválida: %w", err)
	}
	return &Verifier{key: k, audience: audience}, nil
}

// Verify valida firma, expiración y audiencia y devuelve una identidad verificada.
func (v *Verifier) Verify(tokenString string) (Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"ES256", "ES384", "RS256", "RS384"})}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		switch v.key.(type) {
		case *ecdsa.PublicKey:
			if _, ok := t.Method.(*jwt.SigningMethodECDSA); !ok {
				return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
			}
		case *rsa.PublicKey:
			if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
			}
		}
		return v.key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenInvalidAudience) {
			return Identity{}, ErrAudience
		}
		return Identity{}, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("claims inválidos")
	}
	return identityFrom(claims, TrustVerified), nil
}

// ParseUnverified lee el payload sin comprobar la firma.
func ParseUnverified(tokenString string) (Identity, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return Identity{}, err
	}
	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("jwt: token sin sub")
	}
	return identityFrom(claims, TrustUnverified), nil
}

// Resolve intenta verificar y, si falla, cae a la lectura sin firma marcándola como no verificada.
// v puede ser nil (sin clave configurada).
func Resolve(v *Verifier, tokenString string) (Identity, error) {
	if v != nil {
		id, err := v.Verify(tokenString)
		if err == nil {
			return id, nil
		}
		if errors.Is(err, ErrAudience) {
			return Identity{}, err
		}
	}
	return ParseUnverified(tokenString)
}

func identityFrom(c *Claims, trust Trust) Identity {
	return Identity{
		Trust:   trust,
		Subject: c.Subject,
		ENS:     c.ENS,
		Tokens:  orAll(c.Tokens),
		Chains:  orAll(c.Chains),
		Issuer:  c.Issuer,
	}
}

func orAll(v []string) []string {
	if len(v) == 0 {
		return []string{"all"}
	}
	return v
}
