package signature

import (
	"crypto"
	"crypto/md5"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
)

// Verify reports whether sig is the provider's RSA signature over the MD5
// digest of canonical. Any malformed input yields false.
func Verify(key PublicKeyMaterial, sig SignatureToken, canonical []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	pub, err := parseRSAPublicKey(key)
	if err != nil || len(sig) == 0 {
		return false
	}

	digest := md5.Sum(canonical)
	return rsa.VerifyPKCS1v15(pub, crypto.MD5, digest[:], sig) == nil
}

var (
	errNoPEM    = errors.New("public key is not PEM encoded")
	errNotRSA   = errors.New("public key is not an RSA key")
	errBadBlock = errors.New("unsupported PEM block type")
)

// parseRSAPublicKey accepts PKIX "PUBLIC KEY" and PKCS#1 "RSA PUBLIC KEY" blocks.
func parseRSAPublicKey(material []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(material)
	if block == nil {
		return nil, errNoPEM
	}

	switch block.Type {
	case "PUBLIC KEY":
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		rsaPub, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, errNotRSA
		}
		return rsaPub, nil
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	default:
		return nil, errBadBlock
	}
}
