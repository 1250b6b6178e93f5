// Command keygen provisions the secrets adminauth needs: an Ed25519 signing
// key (PEM, PKCS8) and a hex-encoded AES-256 encryption key.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/promogate/adminauth/pkg/cryptox"
)

func main() {
	out := flag.String("out", "signing.pem", "path to write the signing key to")
	flag.Parse()

	pemKey, err := cryptox.GenerateEdDSAKey()
	if err != nil {
		log.Fatalf("failed to generate signing key: %v", err)
	}
	if err := os.WriteFile(*out, pemKey, 0o600); err != nil {
		log.Fatalf("failed to write %s: %v", *out, err)
	}

	var encKey [32]byte
	if _, err := rand.Read(encKey[:]); err != nil {
		log.Fatalf("failed to generate encryption key: %v", err)
	}

	fmt.Printf("AUTH_SIGNING_KEY_FILE=%s\n", *out)
	fmt.Printf("ENCRYPTION_KEY=%s\n", hex.EncodeToString(encKey[:]))
}
