package auth

import "golang.org/x/crypto/bcrypt"

// bcrypt ignores input past 72 bytes; truncate explicitly so hashing and
// verification agree on long passwords.
const maxPasswordBytes = 72

// HashPassword returns the bcrypt hash of a plain password.
func HashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		password = password[:maxPasswordBytes]
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether a plain password matches a stored hash.
func CheckPassword(hash, password string) bool {
	if len(password) > maxPasswordBytes {
		password = password[:maxPasswordBytes]
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
