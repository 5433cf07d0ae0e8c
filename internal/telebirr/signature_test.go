package telebirr

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

func newTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestCanonicalString(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		want    string
	}{
		{
			name: "sorted and without signature",
			payload: map[string]any{
				"tradeStatus":     "SUCCESS",
				"merchantOrderId": "o-1",
				"totalAmount":     "500",
				"signature":       "abc",
			},
			want: "merchantOrderId=o-1&totalAmount=500&tradeStatus=SUCCESS",
		},
		{
			name: "nil values dropped",
			payload: map[string]any{
				"b":        "2",
				"a":        nil,
				"currency": "ETB",
			},
			want: "b=2&currency=ETB",
		},
		{
			name: "numbers keep json text",
			payload: map[string]any{
				"totalAmount": json.Number("19.90"),
				"timestamp":   json.Number("1700000000000"),
			},
			want: "timestamp=1700000000000&totalAmount=19.90",
		},
		{
			name:    "empty payload",
			payload: map[string]any{"signature": "x"},
			want:    "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalString(tt.payload))
		})
	}
}

func TestCanonicalString_OrderIndependent(t *testing.T) {
	first, err := DecodePayload([]byte(`{"merchantOrderId":"o-1","outTradeNo":"t-1","totalAmount":"500","currency":"ETB","tradeStatus":"SUCCESS","timestamp":"1","signature":"s"}`))
	require.NoError(t, err)
	second, err := DecodePayload([]byte(`{"signature":"other","timestamp":"1","tradeStatus":"SUCCESS","currency":"ETB","totalAmount":"500","outTradeNo":"t-1","merchantOrderId":"o-1"}`))
	require.NoError(t, err)

	assert.Equal(t, CanonicalString(first), CanonicalString(second))
	assert.NotContains(t, CanonicalString(first), "signature")
}

func TestSignAndVerify(t *testing.T) {
	key := newTestKey(t)
	signer := NewSigner(key)
	verifier := NewVerifier(&key.PublicKey)

	payload := map[string]any{
		"merchantOrderId": "o-1",
		"outTradeNo":      "t-1",
		"totalAmount":     "500",
		"currency":        "ETB",
		"tradeStatus":     "SUCCESS",
		"timestamp":       "1700000000",
	}
	sig, err := signer.Sign(payload)
	require.NoError(t, err)
	payload[SignatureField] = sig

	require.NoError(t, verifier.Verify(payload))

	tests := []struct {
		name   string
		mutate func(p map[string]any)
	}{
		{name: "tampered amount", mutate: func(p map[string]any) { p["totalAmount"] = "5" }},
		{name: "tampered status", mutate: func(p map[string]any) { p["tradeStatus"] = "FAILED" }},
		{name: "extra field", mutate: func(p map[string]any) { p["extra"] = "1" }},
		{name: "missing signature", mutate: func(p map[string]any) { delete(p, SignatureField) }},
		{name: "signature not base64", mutate: func(p map[string]any) { p[SignatureField] = "%%%" }},
		{name: "signature of other payload", mutate: func(p map[string]any) {
			other, err := signer.Sign(map[string]any{"merchantOrderId": "o-2"})
			require.NoError(t, err)
			p[SignatureField] = other
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := make(map[string]any, len(payload))
			for k, v := range payload {
				p[k] = v
			}
			tt.mutate(p)
			require.ErrorIs(t, verifier.Verify(p), models.ErrInvalidSignature)
		})
	}
}

func TestVerify_WrongKey(t *testing.T) {
	payload := map[string]any{"merchantOrderId": "o-1"}
	sig, err := NewSigner(newTestKey(t)).Sign(payload)
	require.NoError(t, err)
	payload[SignatureField] = sig

	err = NewVerifier(&newTestKey(t).PublicKey).Verify(payload)
	require.ErrorIs(t, err, models.ErrInvalidSignature)
}

func TestParsePublicKey(t *testing.T) {
	key := newTestKey(t)

	pkix, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pkcs1 := x509.MarshalPKCS1PublicKey(&key.PublicKey)

	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{name: "pkix", data: pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pkix})},
		{name: "pkcs1", data: pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: pkcs1})},
		{name: "not pem", data: []byte("not a key"), wantErr: true},
		{name: "garbage block", data: pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: []byte("junk")}), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePublicKey(tt.data)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, key.PublicKey.Equal(got))
		})
	}
}

func TestLoadPublicKey(t *testing.T) {
	key := newTestKey(t)
	pkix, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "telebirr.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pkix}), 0o600))

	got, err := LoadPublicKey(path)
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(got))

	_, err = LoadPublicKey("")
	require.Error(t, err)
	_, err = LoadPublicKey(filepath.Join(t.TempDir(), "missing.pem"))
	require.Error(t, err)
}
