package app

import (
	"fmt"
	"os"

	"github.com/promogate/adminauth/pkg/jwtx"
)

const signingKeyID = "adminauth-1"

// initSigningKeys loads the Ed25519 signing key from the configured PEM file
// and builds the signer, key set, and verifier. A missing or malformed key
// is fatal at startup: requests must never reach a service that cannot sign
// or verify tokens.
func initSigningKeys(cfg Config) (jwtx.Signer, *jwtx.KeySet, jwtx.Verifier, error) {
	if cfg.SigningKeyFile == "" {
		return nil, nil, nil, fmt.Errorf("AUTH_SIGNING_KEY_FILE is not configured")
	}

	pemKey, err := os.ReadFile(cfg.SigningKeyFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to read signing key %q: %w", cfg.SigningKeyFile, err)
	}

	signer, err := jwtx.NewSignerEdDSA(signingKeyID, pemKey)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load signing key: %w", err)
	}

	keys := jwtx.NewKeySet()
	if err := keys.AddSigner(signer); err != nil {
		return nil, nil, nil, err
	}

	return signer, keys, jwtx.NewCommonEdDSA(keys, cfg.Issuer), nil
}
