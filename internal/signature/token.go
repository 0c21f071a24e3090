package signature

import (
	"encoding/base64"

	"oss-callback/internal/common/errors"
)

// Header names the provider uses for callback authentication.
const (
	HeaderAuthorization = "Authorization"
	HeaderPubKeyURL     = "X-Oss-Pub-Key-Url"
)

// SignatureToken is the decoded authorization header. Only Verify interprets it.
type SignatureToken []byte

// ExtractSignature decodes the base64 authorization header value.
func ExtractSignature(headerValue string) (SignatureToken, error) {
	if headerValue == "" {
		return nil, errors.MissingHeaderError("Failed: authorization field is not valid.")
	}

	sig, err := base64.StdEncoding.DecodeString(headerValue)
	if err != nil {
		return nil, errors.MalformedSignatureError("Failed: authorization field is not valid.", err)
	}
	return SignatureToken(sig), nil
}
