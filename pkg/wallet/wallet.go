// Package wallet valida el destino de un pago: dirección EVM (0x + 40 hex) o nombre resoluble (ENS).
package wallet

import (
	"encoding/hex"
	"errors"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

var (
	ErrEmpty    = errors.New("wallet: dirección vacía")
	ErrFormat   = errors.New("wallet: formato inválido, se espera 0x + 40 hex o un nombre tipo vitalik.eth")
	ErrChecksum = errors.New("wallet: checksum EIP-55 inválido")
)

var (
	addressRe = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	domainRe  = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*(\.[a-zA-Z0-9][a-zA-Z0-9-]*)+$`)
)

// Validate acepta una dirección hex o un nombre con al menos un punto.
// Si la dirección mezcla mayúsculas y minúsculas debe cumplir EIP-55.
func Validate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return ErrEmpty
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if !addressRe.MatchString(s) {
			return ErrFormat
		}
		body := s[2:]
		if body != strings.ToLower(body) && body != strings.ToUpper(body) && Checksum(s) != s {
			return ErrChecksum
		}
		return nil
	}
	if !domainRe.MatchString(s) {
		return ErrFormat
	}
	return nil
}

// IsAddress indica si s tiene forma de dirección hex.
func IsAddress(s string) bool { return addressRe.MatchString(strings.TrimSpace(s)) }

// IsName indica si s es un nombre resoluble (ENS u otro dominio).
func IsName(s string) bool {
	s = strings.TrimSpace(s)
	return !strings.HasPrefix(s, "0x") && domainRe.MatchString(s)
}

// Checksum devuelve la dirección en formato EIP-55; s debe ser una dirección hex válida.
func Checksum(s string) string {
	body := strings.ToLower(strings.TrimSpace(s))[2:]
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(body))
	digest := hex.EncodeToString(h.Sum(nil))

	out := []byte(body)
	for i, c := range out {
		if c >= 'a' && c <= 'f' && digest[i] >= '8' {
			out[i] = c - 32
		}
	}
	return "0x" + string(out)
}
