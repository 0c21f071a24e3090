package signature

import (
	"context"
	"crypto"
	"crypto/md5"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	commonhttp "oss-callback/internal/common/http"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

func testPrivateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		testKey = key
	})
	return testKey
}

func pkixPEM(t *testing.T, pub *rsa.PublicKey) []byte {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
}

func signMD5(t *testing.T, key *rsa.PrivateKey, canonical []byte) []byte {
	t.Helper()
	digest := md5.Sum(canonical)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.MD5, digest[:])
	require.NoError(t, err)
	return sig
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, rawURL string) (*commonhttp.Response, error) {
	args := m.Called(ctx, rawURL)
	if resp := args.Get(0); resp != nil {
		return resp.(*commonhttp.Response), args.Error(1)
	}
	return nil, args.Error(1)
}
