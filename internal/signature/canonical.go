package signature

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"unicode/utf8"

	"oss-callback/internal/common/errors"
)

// BuildCanonical reconstructs the string the provider signed:
// decode(path) + query + "\n" + body.
//
// query must already include its leading '?' (see QueryString). The body is
// copied as-is; nothing is trimmed, folded or re-encoded.
func BuildCanonical(path, query string, body []byte) ([]byte, error) {
	decoded, err := url.PathUnescape(path)
	if err != nil {
		return nil, errors.MalformedRequestError("Failed: request path is not valid.", err)
	}
	if !utf8.ValidString(decoded) {
		return nil, errors.MalformedRequestError("Failed: request path is not valid.",
			fmt.Errorf("path %q decodes to invalid UTF-8", path))
	}

	var buf bytes.Buffer
	buf.Grow(len(decoded) + len(query) + 1 + len(body))
	buf.WriteString(decoded)
	buf.WriteString(query)
	buf.WriteByte('\n')
	buf.Write(body)
	return buf.Bytes(), nil
}

// QueryString returns the query exactly as the request carried it, including
// the leading '?', or "" when the request had none.
func QueryString(u *url.URL) string {
	if u == nil {
		return ""
	}
	if u.RawQuery != "" || u.ForceQuery {
		return "?" + u.RawQuery
	}
	return ""
}

// ReadBody reads r to EOF, failing if more than max bytes arrive.
// r may already be wrapped by http.MaxBytesReader.
func ReadBody(r io.Reader, max int64) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}

	body, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, bodyTooLarge(max)
		}
		return nil, errors.MalformedRequestError("Failed: request body could not be read.", err)
	}
	if int64(len(body)) > max {
		return nil, bodyTooLarge(max)
	}
	return body, nil
}

func bodyTooLarge(max int64) error {
	return errors.MalformedRequestError(fmt.Sprintf("Failed: request body exceeds %d bytes.", max), nil)
}
