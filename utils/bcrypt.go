package utils

import (
	"errors"

	"github.com/FDXFinanzas1/inventario-ciego/config"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes s with BCRYPT_COST, falling back to bcrypt.DefaultCost.
func HashPassword(s string) (string, error) {
	cost := config.IntFromEnv("BCRYPT_COST", bcrypt.DefaultCost)
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(s), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword returns ErrorUnauthorized when plain does not match hashed.
func ComparePassword(hashed string, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrorUnauthorized
	}
	return err
}
