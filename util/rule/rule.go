package rule

import "strings"

const (
	CR   byte = '\r'
	LF   byte = '\n'
	SP   byte = ' '
	HTAB byte = '\t'
)

// IsValidToken reports whether s is a token.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.2-2
func IsValidToken(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, c := range s {
		if IsAlpha(c) || IsDigit(c) {
			continue
		}

		switch c {
		case '!', '#', '$', '%', '&', '\'', '*', '+',
			'-', '.', '^', '_', '`', '|', '~':
			continue
		}

		return false
	}

	return true
}

// IsValidFieldValue reports whether s is a valid field value: visible
// ASCII, SP and HTAB. Leading/trailing whitespace is the caller's problem,
// see TrimFieldValue.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.5-2
func IsValidFieldValue(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 0x21 <= c && c <= 0x7E {
			continue
		}
		if c == SP || c == HTAB {
			continue
		}
		return false
	}

	return true
}

// TrimFieldValue removes leading and trailing OWS from a field value
// before it is stored, as the fetch header-value normalization requires.
// Reference: https://fetch.spec.whatwg.org/#concept-header-value-normalize
func TrimFieldValue(s string) string {
	return strings.Trim(s, string([]byte{SP, HTAB, CR, LF}))
}

func IsAlpha(r rune) bool { return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') }
func IsDigit(r rune) bool { return '0' <= r && r <= '9' }

// CanonicalFieldName uppercases the first letter of each dash-separated
// word. It only works on a valid token; anything else is returned as-is.
func CanonicalFieldName(s string) string {
	if !IsValidToken(s) {
		return s
	}

	const capitalDiff = 'a' - 'A'
	b := []byte(s)
	upper := true
	for i, c := range b {
		if upper && 'a' <= c && c <= 'z' {
			c -= capitalDiff
		} else if !upper && 'A' <= c && c <= 'Z' {
			c += capitalDiff
		}
		b[i] = c
		upper = c == '-'
	}
	return string(b)
}

// Forbidden request-header names, plus the Proxy- and Sec- prefixes
// checked by IsForbiddenRequestHeader.
// Reference: https://fetch.spec.whatwg.org/#forbidden-request-header
var forbiddenRequestHeaders = map[string]struct{}{
	"accept-charset":                 {},
	"accept-encoding":                {},
	"access-control-request-headers": {},
	"access-control-request-method":  {},
	"connection":                     {},
	"content-length":                 {},
	"cookie":                         {},
	"cookie2":                        {},
	"date":                           {},
	"dnt":                            {},
	"expect":                         {},
	"host":                           {},
	"keep-alive":                     {},
	"origin":                         {},
	"referer":                        {},
	"te":                             {},
	"trailer":                        {},
	"transfer-encoding":              {},
	"upgrade":                        {},
	"via":                            {},
}

// Reference: https://fetch.spec.whatwg.org/#forbidden-response-header-name
var forbiddenResponseHeaders = map[string]struct{}{
	"set-cookie":  {},
	"set-cookie2": {},
}

// CORS-safelisted request headers, the only ones a no-cors request guard
// lets through.
// Reference: https://fetch.spec.whatwg.org/#cors-safelisted-request-header
var corsSafelistedRequestHeaders = map[string]struct{}{
	"accept":           {},
	"accept-language":  {},
	"content-language": {},
	"content-type":     {},
}

func IsForbiddenRequestHeader(name string) bool {
	name = strings.ToLower(name)
	if _, ok := forbiddenRequestHeaders[name]; ok {
		return true
	}
	return strings.HasPrefix(name, "proxy-") || strings.HasPrefix(name, "sec-")
}

func IsForbiddenResponseHeader(name string) bool {
	_, ok := forbiddenResponseHeaders[strings.ToLower(name)]
	return ok
}

func IsCORSSafelistedRequestHeader(name string) bool {
	_, ok := corsSafelistedRequestHeaders[strings.ToLower(name)]
	return ok
}
