// Package util holds small shared helpers.
package util

import "golang.org/x/crypto/bcrypt"

// dummyHash is compared against when no stored hash exists, so that lookups
// for unknown and known identifiers cost the same.
var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("timing-equalizer"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
}()

// EncryptPassword hashes a plaintext password with bcrypt.
func EncryptPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword reports whether the plaintext password matches the hash.
func ComparePassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// CompareDummyPassword burns a bcrypt comparison against a throwaway hash.
// It always returns false.
func CompareDummyPassword(password string) bool {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
	return false
}
