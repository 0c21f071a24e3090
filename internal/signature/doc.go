// Package signature verifies upload-completion callbacks sent by the object
// storage provider.
//
// A callback is trusted only after four independent pieces line up:
//
//   - the canonical string: the percent-decoded request path, the raw query
//     string (with its leading '?'), a newline, then the raw body, byte for byte
//   - the provider public key, downloaded from the URL carried base64-encoded in
//     the x-oss-pub-key-url header, and only when that URL points at an
//     allow-listed origin
//   - the signature, carried base64-encoded in the authorization header
//   - an RSASSA-PKCS1-v1_5 check of the MD5 digest of the canonical string
//
// MD5 is what the provider signs with. It is kept for interoperability and must
// not be swapped for a stronger digest, or every callback fails.
//
// # Usage
//
//	allow, _ := signature.ParseOrigins(cfg.KeyURLOrigins)
//	resolver := signature.NewResolver(allow, commonhttp.NewClient(), logger)
//
//	key, err := resolver.Resolve(ctx, r.Header.Get(signature.HeaderPubKeyURL))
//	sig, err := signature.ExtractSignature(r.Header.Get(signature.HeaderAuthorization))
//	canonical, err := signature.BuildCanonical(r.URL.EscapedPath(), signature.QueryString(r.URL), body)
//
//	if signature.Verify(key, sig, canonical) {
//	    // trusted
//	}
//
// # Security Considerations
//
//   - The key URL comes from the request itself. It is compared against the
//     allow-list by exact scheme and host before any network call, never by
//     prefix or substring.
//   - The key download does not follow redirects and is bounded in time and size.
//   - Verify never panics and never returns an error: anything malformed is a
//     failed verification.
//   - Keys are not cached. Each callback downloads its own.
package signature
