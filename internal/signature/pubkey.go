package signature

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"oss-callback/internal/common/errors"
	commonhttp "oss-callback/internal/common/http"
	"oss-callback/internal/common/logging"
)

// PublicKeyMaterial is the raw key document returned by the provider.
type PublicKeyMaterial []byte

// Origin is a scheme and host (with optional port) a key URL may point at.
type Origin struct {
	Scheme string
	Host   string
}

func (o Origin) String() string {
	return o.Scheme + "://" + o.Host
}

// OriginAllowList is the fixed set of origins trusted to serve public keys.
type OriginAllowList []Origin

// ParseOrigins builds an allow-list from "scheme://host[:port]" strings.
func ParseOrigins(raw []string) (OriginAllowList, error) {
	if len(raw) == 0 {
		return nil, errors.ConfigError("at least one public key origin is required")
	}

	list := make(OriginAllowList, 0, len(raw))
	for _, item := range raw {
		u, err := url.Parse(strings.TrimSpace(item))
		if err != nil {
			return nil, errors.ConfigError(fmt.Sprintf("invalid public key origin %q: %v", item, err))
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, errors.ConfigError(fmt.Sprintf("public key origin %q must use http or https", item))
		}
		if u.Host == "" || u.User != nil || (u.Path != "" && u.Path != "/") || u.RawQuery != "" {
			return nil, errors.ConfigError(fmt.Sprintf("public key origin %q must be scheme://host[:port]", item))
		}
		list = append(list, Origin{Scheme: u.Scheme, Host: strings.ToLower(u.Host)})
	}
	return list, nil
}

// Allows reports whether u is served by one of the allowed origins.
// Scheme and host must match exactly; a longer host that merely starts with
// an allowed one, userinfo tricks and relative URLs are all refused.
func (l OriginAllowList) Allows(u *url.URL) bool {
	if u == nil || u.User != nil || u.Opaque != "" || !strings.HasPrefix(u.Path, "/") {
		return false
	}
	host := strings.ToLower(u.Host)
	for _, origin := range l {
		if u.Scheme == origin.Scheme && host == origin.Host {
			return true
		}
	}
	return false
}

// DecodeKeyURL decodes the base64 x-oss-pub-key-url header value into a URL.
func DecodeKeyURL(headerValue string) (*url.URL, error) {
	if headerValue == "" {
		return nil, errors.MissingHeaderError("Failed: x-oss-pub-key-url field is not valid.")
	}

	raw, err := base64.StdEncoding.DecodeString(headerValue)
	if err != nil {
		return nil, errors.MalformedSignatureError("Failed: x-oss-pub-key-url field is not valid.", err)
	}

	u, err := url.Parse(string(raw))
	if err != nil {
		return nil, errors.MalformedSignatureError("Failed: x-oss-pub-key-url field is not valid.", err)
	}
	return u, nil
}

// Resolver downloads the provider public key named by a callback.
type Resolver struct {
	allow   OriginAllowList
	fetcher commonhttp.Fetcher
	logger  logging.Logger
}

// NewResolver creates a Resolver that only fetches from allow.
func NewResolver(allow OriginAllowList, fetcher commonhttp.Fetcher, logger logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Resolver{
		allow:   allow,
		fetcher: fetcher,
		logger:  logger,
	}
}

// Resolve decodes the header, checks the URL against the allow-list and
// fetches the key. Nothing is fetched for a URL that fails the check.
func (r *Resolver) Resolve(ctx context.Context, headerValue string) (PublicKeyMaterial, error) {
	keyURL, err := DecodeKeyURL(headerValue)
	if err != nil {
		return nil, err
	}

	if !r.allow.Allows(keyURL) {
		r.logger.WithContext(ctx).Debug("Refusing public key URL outside allow-list",
			logging.String("scheme", keyURL.Scheme),
			logging.String("host", keyURL.Host),
		)
		return nil, errors.UntrustedKeyURLError("Failed: untrusted key URL").
			WithContext("host", keyURL.Host)
	}

	resp, err := r.fetcher.Fetch(ctx, keyURL.String())
	if err != nil {
		return nil, errors.KeyFetchError("Failed: key fetch failed", err)
	}

	if resp.StatusCode != 200 {
		return nil, errors.KeyFetchError(fmt.Sprintf("Failed: Get OSS public key %s", resp.Status), nil).
			WithContext("status", resp.StatusCode)
	}

	r.logger.WithContext(ctx).Debug("Fetched public key",
		logging.String("host", keyURL.Host),
		logging.Int("bytes", len(resp.Body)),
	)
	return PublicKeyMaterial(resp.Body), nil
}
