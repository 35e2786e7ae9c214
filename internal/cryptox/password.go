// Package cryptox wraps the password hashing primitives used by the server.
package cryptox

import "golang.org/x/crypto/bcrypt"

// BcryptCost is the work factor for password hashing. 12 keeps a single
// verification around the 100ms mark on current hardware.
const BcryptCost = 12

// HashPassword derives a salted bcrypt hash from the plaintext password.
// The plaintext is never stored.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the stored
// bcrypt hash.
func CheckPassword(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
