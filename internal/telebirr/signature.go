package telebirr

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

// CanonicalString собирает подписываемую строку: все ключи кроме signature,
// без пустых значений, по возрастанию, в виде key=value через &.
func CanonicalString(payload map[string]any) string {
	keys := make([]string, 0, len(payload))
	for k, v := range payload {
		if k == SignatureField || v == nil {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(formatValue(payload[k]))
	}
	return b.String()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

func digest(payload map[string]any) []byte {
	sum := sha256.Sum256([]byte(CanonicalString(payload)))
	return sum[:]
}

// Verifier проверяет подпись уведомлений открытым ключом шлюза.
type Verifier struct {
	key *rsa.PublicKey
}

// NewVerifier создаёт Verifier из открытого ключа.
func NewVerifier(key *rsa.PublicKey) *Verifier {
	return &Verifier{key: key}
}

// Verify проверяет RSA-SHA256 подпись из поля signature над каноничной строкой.
func (v *Verifier) Verify(payload map[string]any) error {
	const op = "telebirr.Verify"
	raw, ok := payload[SignatureField].(string)
	if !ok || raw == "" {
		return fmt.Errorf("%s: %w: missing signature", op, models.ErrInvalidSignature)
	}
	sig, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, models.ErrInvalidSignature, err)
	}
	if err := rsa.VerifyPKCS1v15(v.key, crypto.SHA256, digest(payload), sig); err != nil {
		return fmt.Errorf("%s: %w", op, models.ErrInvalidSignature)
	}
	return nil
}

// Signer подписывает уведомления закрытым ключом. Нужен для песочницы и тестов.
type Signer struct {
	key *rsa.PrivateKey
}

// NewSigner создаёт Signer из закрытого ключа.
func NewSigner(key *rsa.PrivateKey) *Signer {
	return &Signer{key: key}
}

// Sign возвращает подпись payload в base64.
func (s *Signer) Sign(payload map[string]any) (string, error) {
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest(payload))
	if err != nil {
		return "", fmt.Errorf("telebirr.Sign: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// ParsePublicKey читает открытый RSA-ключ из PEM в формате PKIX или PKCS#1.
func ParsePublicKey(data []byte) (*rsa.PublicKey, error) {
	const op = "telebirr.ParsePublicKey"
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%s: no PEM block found", op)
	}
	if pub, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		key, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%s: key is not RSA", op)
		}
		return key, nil
	}
	key, err := x509.ParsePKCS1PublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return key, nil
}

// LoadPublicKey читает открытый ключ из файла.
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	if path == "" {
		return nil, errors.New("telebirr.LoadPublicKey: empty path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("telebirr.LoadPublicKey: %w", err)
	}
	return ParsePublicKey(data)
}
