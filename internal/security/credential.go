package security

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"hash"

	"golang.org/x/crypto/bcrypt"
)

// Strategy checks a submitted password against one stored credential format.
// A non-nil error means the stored value is not in this strategy's format.
type Strategy interface {
	Name() string
	Verify(plain, stored string) (bool, error)
}

// CredentialVerifier tries its strategies in order and stops at the first match.
type CredentialVerifier struct {
	strategies []Strategy
}

func NewCredentialVerifier(strategies ...Strategy) *CredentialVerifier {
	return &CredentialVerifier{strategies: strategies}
}

// DefaultCredentialVerifier accepts legacy plaintext and unsalted digests
// ahead of the modern salted schemes. Drop the first four strategies once
// every stored credential has been rewritten.
func DefaultCredentialVerifier() *CredentialVerifier {
	return NewCredentialVerifier(
		PlaintextStrategy{},
		DigestStrategy{name: "md5", newHash: md5.New},
		DigestStrategy{name: "sha1", newHash: sha1.New},
		DigestStrategy{name: "sha256", newHash: sha256.New},
		Argon2Strategy{},
		BcryptStrategy{},
	)
}

func (v *CredentialVerifier) Verify(plain, stored string) bool {
	_, ok := v.Match(plain, stored)
	return ok
}

// Match reports the name of the first strategy that accepts plain.
func (v *CredentialVerifier) Match(plain, stored string) (string, bool) {
	if stored == "" {
		return "", false
	}
	for _, s := range v.strategies {
		if safeVerify(s, plain, stored) {
			return s.Name(), true
		}
	}
	return "", false
}

// safeVerify reports a failing or panicking strategy as a non-match.
func safeVerify(s Strategy, plain, stored string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	matched, err := s.Verify(plain, stored)
	return err == nil && matched
}

type PlaintextStrategy struct{}

func (PlaintextStrategy) Name() string { return "plain" }

func (PlaintextStrategy) Verify(plain, stored string) (bool, error) {
	return constantTimeEqual(plain, stored), nil
}

// DigestStrategy compares the lowercase hex digest of the password.
type DigestStrategy struct {
	name    string
	newHash func() hash.Hash
}

func (s DigestStrategy) Name() string { return s.name }

func (s DigestStrategy) Verify(plain, stored string) (bool, error) {
	h := s.newHash()
	h.Write([]byte(plain))
	return constantTimeEqual(hex.EncodeToString(h.Sum(nil)), stored), nil
}

type Argon2Strategy struct{}

func (Argon2Strategy) Name() string { return "argon2id" }

func (Argon2Strategy) Verify(plain, stored string) (bool, error) {
	return VerifyPassword(plain, stored)
}

// BcryptStrategy covers hashes carried over from the previous platform ($2y$, $2a$, $2b$).
type BcryptStrategy struct{}

func (BcryptStrategy) Name() string { return "bcrypt" }

func (BcryptStrategy) Verify(plain, stored string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain))
	if err == nil {
		return true, nil
	}
	if err == bcrypt.ErrMismatchedHashAndPassword {
		return false, nil
	}
	return false, err
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
