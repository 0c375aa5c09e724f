package auth

import "golang.org/x/crypto/bcrypt"

// CredentialVerifier hashes passwords and checks them against stored hashes.
type CredentialVerifier interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type BcryptVerifier struct {
	Cost int
}

func NewBcryptVerifier(cost int) *BcryptVerifier {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptVerifier{Cost: cost}
}

func (b *BcryptVerifier) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), b.Cost)
	return string(bytes), err
}

func (b *BcryptVerifier) Verify(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
