// Package otp derives and checks time-based one-time codes.
package otp

import (
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	DefaultPeriod = 30
	// DefaultSkew is the number of time steps accepted on either side of now.
	DefaultSkew = 2
)

type Generator struct {
	Issuer string
	Period uint
	Skew   uint
}

func NewGenerator(issuer string) *Generator {
	return &Generator{Issuer: issuer, Period: DefaultPeriod, Skew: DefaultSkew}
}

// NewSecret returns a fresh base32 secret bound to account.
func (g *Generator) NewSecret(account string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      g.Issuer,
		AccountName: account,
		Period:      g.Period,
		SecretSize:  20,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate otp secret: %w", err)
	}
	return key.Secret(), nil
}

// Code returns the code for the time step containing t.
func (g *Generator) Code(secret string, t time.Time) (string, error) {
	code, err := totp.GenerateCodeCustom(secret, t, g.opts(0))
	if err != nil {
		return "", fmt.Errorf("failed to derive otp code: %w", err)
	}
	return code, nil
}

// Validate reports whether code matches any step within the skew window
// around t. Malformed codes are simply invalid.
func (g *Generator) Validate(code, secret string, t time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, t, g.opts(g.Skew))
	return err == nil && ok
}

func (g *Generator) opts(skew uint) totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    g.Period,
		Skew:      skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}
