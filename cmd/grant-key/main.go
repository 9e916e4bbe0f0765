// Package main provides a one-shot utility for auth key generation.
//
// It emits the asymmetric keypair the raffle API verifies bearer tokens
// against.
package main

import (
	"os"

	"github.com/School-of-Solana/program-thelotux/internal/platform/config"
	"github.com/School-of-Solana/program-thelotux/internal/tools/grantkey"
)

func main() {
	if err := grantkey.Run(os.Stdout, nil); err != nil {
		config.Exitf("generate auth key: %v", err)
	}
}
