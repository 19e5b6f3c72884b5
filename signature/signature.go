package signature

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

/* Standard Webhooks symmetric signing
 * Replays sent to a named target with a signing secret carry these headers,
 * so receivers that verify signatures accept the replayed request
 */

const (
	// SecretPrefix is the prefix of a Standard Webhooks symmetric secret
	SecretPrefix = "whsec_"

	// Version is the scheme identifier of symmetric signatures
	Version = "v1"

	MinSecretBytes = 24
	MaxSecretBytes = 64

	HeaderID        = "webhook-id"
	HeaderTimestamp = "webhook-timestamp"
	HeaderSignature = "webhook-signature"
)

// Secret is a decoded signing secret
type Secret struct {
	raw []byte
}

// GenerateSecret creates a random secret of size bytes
func GenerateSecret(size int) (Secret, error) {
	if size < MinSecretBytes || size > MaxSecretBytes {
		return Secret{}, fmt.Errorf("secret size must be between %d and %d bytes", MinSecretBytes, MaxSecretBytes)
	}
	raw := make([]byte, size)
	if _, err := rand.Read(raw); err != nil {
		return Secret{}, fmt.Errorf("generating random bytes: %w", err)
	}
	return Secret{raw: raw}, nil
}

// ParseSecret decodes a "whsec_<base64>" secret
func ParseSecret(encoded string) (Secret, error) {
	b64, ok := strings.CutPrefix(encoded, SecretPrefix)
	if !ok {
		return Secret{}, fmt.Errorf("secret must start with %s", SecretPrefix)
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return Secret{}, fmt.Errorf("decoding base64 secret: %w", err)
	}
	if len(raw) < MinSecretBytes || len(raw) > MaxSecretBytes {
		return Secret{}, fmt.Errorf("secret size must be between %d and %d bytes", MinSecretBytes, MaxSecretBytes)
	}
	return Secret{raw: raw}, nil
}

// String returns the encoded secret with its prefix
func (s Secret) String() string {
	return SecretPrefix + base64.StdEncoding.EncodeToString(s.raw)
}

// Sign returns "v1,<base64 HMAC-SHA256>" over "{msgID}.{unix timestamp}.{payload}"
func Sign(secret Secret, msgID string, ts time.Time, payload []byte) (string, error) {
	if msgID == "" || strings.Contains(msgID, ".") {
		return "", fmt.Errorf("message id must be non-empty and must not contain '.'")
	}
	return Version + "," + base64.StdEncoding.EncodeToString(digest(secret, msgID, ts, payload)), nil
}

// Headers returns the three Standard Webhooks headers for payload
func Headers(secret Secret, msgID string, ts time.Time, payload []byte) (map[string]string, error) {
	sig, err := Sign(secret, msgID, ts, payload)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		HeaderID:        msgID,
		HeaderTimestamp: strconv.FormatInt(ts.Unix(), 10),
		HeaderSignature: sig,
	}, nil
}

/* Verify checks a webhook-signature header value against payload
 * The header may hold several space-delimited signatures; any v1 match is enough
 */
func Verify(secret Secret, msgID string, ts time.Time, payload []byte, header string) (bool, error) {
	if strings.TrimSpace(header) == "" {
		return false, fmt.Errorf("signature header is empty")
	}
	expected := digest(secret, msgID, ts, payload)

	for _, part := range strings.Fields(header) {
		version, encoded, ok := strings.Cut(part, ",")
		if !ok || version != Version {
			continue
		}
		got, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			continue
		}
		if hmac.Equal(got, expected) {
			return true, nil
		}
	}
	return false, nil
}

func digest(secret Secret, msgID string, ts time.Time, payload []byte) []byte {
	mac := hmac.New(sha256.New, secret.raw)
	fmt.Fprintf(mac, "%s.%d.", msgID, ts.Unix())
	mac.Write(payload)
	return mac.Sum(nil)
}
