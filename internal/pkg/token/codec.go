// internal/pkg/token/codec.go
package token

import (
	"fmt"
	"time"
)

type Config struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// Codec bundles the signing and verifying halves built from one config.
type Codec struct {
	Generator *Generator
	Verifier  *Verifier
}

func Build(cfg Config) (*Codec, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("token signing secret is required")
	}

	secret := []byte(cfg.Secret)
	gen := NewGenerator(secret, cfg.Issuer, cfg.Audience, cfg.TTL)
	ver := NewVerifier(secret, cfg.Issuer, cfg.Audience)

	return &Codec{
		Generator: gen,
		Verifier:  ver,
	}, nil
}
