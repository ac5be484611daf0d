package probe

import (
	"bytes"
	"context"
	"fmt"
	"time"
)

// runKMSCheck round-trips a small plaintext through the configured crypto
// key. A successful decrypt proves both encrypt and decrypt permissions on
// the key, which is what the cryptoKeyEncrypterDecrypter grant promises.
func (r *Runner) runKMSCheck(ctx context.Context) CheckResult {
	started := time.Now()
	keyName := fmt.Sprintf(
		"projects/%s/locations/%s/keyRings/%s/cryptoKeys/%s",
		r.cfg.TargetProjectID, r.cfg.Region, r.cfg.KeyRingID, r.cfg.CryptoKeyID,
	)
	plaintext := []byte("crossgrant probe " + newNonce())

	ciphertext, err := r.kms.Encrypt(ctx, keyName, plaintext)
	if err != nil {
		return failed(CheckKMS, started, err)
	}

	decrypted, err := r.kms.Decrypt(ctx, keyName, ciphertext)
	if err != nil {
		return failed(CheckKMS, started, err)
	}

	if !bytes.Equal(plaintext, decrypted) {
		return failed(CheckKMS, started, fmt.Errorf(
			"decrypted plaintext does not match input (%d bytes in, %d bytes out)",
			len(plaintext), len(decrypted)))
	}

	return passed(CheckKMS, started, map[string]any{
		"key":              keyName,
		"ciphertext_bytes": len(ciphertext),
	})
}
