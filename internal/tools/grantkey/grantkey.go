// Package grantkey generates the ed25519 keypair the raffle API verifies
// bearer tokens against.
package grantkey

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// Run generates an auth keypair and writes exports.
func Run(out io.Writer, reader io.Reader) error {
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}
	publicKey, privateKey, err := ed25519.GenerateKey(reader)
	if err != nil {
		return fmt.Errorf("generate auth key: %w", err)
	}
	if _, err := fmt.Fprintf(out, "export THELOTUX_AUTH_PRIVATE_KEY=%s\n", base64.RawStdEncoding.EncodeToString(privateKey)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "export THELOTUX_AUTH_PUBLIC_KEY=%s\n", base64.RawStdEncoding.EncodeToString(publicKey)); err != nil {
		return err
	}
	return nil
}
