package utils

import "golang.org/x/crypto/bcrypt"

// passwordCost is the bcrypt work factor for new hashes. Old hashes keep
// the cost they were created with; verification reads it from the hash.
const passwordCost = bcrypt.DefaultCost

// HashPassword derives the stored credential from a plaintext password.
// The result embeds its own salt and cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	return string(hash), err
}

// CheckPassword reports whether the plaintext matches the stored hash.
// Malformed hashes read as a mismatch, never as an error.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
