// Package otpauth parses and emits otpauth:// URIs for OTP provisioning,
// per Google Authenticator's Key URI Format and spec §4.E.
package otpauth

import (
	"encoding/base32"
	"fmt"
	"strconv"
	"strings"

	"github.com/i-wajidrashid/keyforge/internal/keyerr"
	"github.com/i-wajidrashid/keyforge/internal/otp"
)

const scheme = "otpauth://"

// Kind is the OTP type encoded in the URI's host segment.
type Kind string

const (
	TOTP Kind = "totp"
	HOTP Kind = "hotp"
)

// URI is the fully decoded content of an otpauth:// URI.
type URI struct {
	Kind      Kind
	Issuer    string
	Account   string
	Secret    []byte // raw decoded seed
	Algorithm otp.Algorithm
	Digits    int
	Period    int    // relevant for TOTP
	Counter   uint64 // relevant for HOTP
}

var base32Enc = base32.StdEncoding.WithPadding(base32.NoPadding)

// Parse decodes an otpauth:// URI. Unknown query keys are ignored.
func Parse(raw string) (*URI, error) {
	if !strings.HasPrefix(raw, scheme) {
		return nil, fmt.Errorf("%w: missing otpauth:// prefix", keyerr.ErrInvalidURI)
	}
	rest := raw[len(scheme):]

	slash := strings.IndexByte(rest, '/')
	if slash < 0 {
		return nil, fmt.Errorf("%w: missing token type", keyerr.ErrInvalidURI)
	}
	kindStr, rest := rest[:slash], rest[slash+1:]

	var kind Kind
	switch strings.ToLower(kindStr) {
	case string(TOTP):
		kind = TOTP
	case string(HOTP):
		kind = HOTP
	default:
		return nil, fmt.Errorf("%w: unknown token type %q", keyerr.ErrInvalidURI, kindStr)
	}

	labelPart, queryPart, hasQuery := strings.Cut(rest, "?")
	if !hasQuery {
		return nil, fmt.Errorf("%w: missing query", keyerr.ErrInvalidURI)
	}

	issuerFromLabel, account := splitLabel(labelPart)

	values, err := parseQuery(queryPart)
	if err != nil {
		return nil, err
	}

	secretStr, ok := values["secret"]
	if !ok {
		return nil, fmt.Errorf("%w: secret", keyerr.ErrMissingURIParam)
	}
	secret, err := base32Enc.DecodeString(strings.ToUpper(secretStr))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keyerr.ErrInvalidBase32, err)
	}

	issuer := issuerFromLabel
	if issuer == "" {
		issuer = "Unknown"
	}
	if v, ok := values["issuer"]; ok {
		issuer = v
	}

	algorithm := otp.SHA1
	if v, ok := values["algorithm"]; ok {
		switch strings.ToUpper(v) {
		case "SHA1":
			algorithm = otp.SHA1
		case "SHA256":
			algorithm = otp.SHA256
		case "SHA512":
			algorithm = otp.SHA512
		default:
			return nil, fmt.Errorf("%w: algorithm %q", keyerr.ErrInvalidURI, v)
		}
	}

	digits := otp.DefaultDigits
	if v, ok := values["digits"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || (n != 6 && n != 8) {
			return nil, fmt.Errorf("%w: digits %q", keyerr.ErrInvalidURI, v)
		}
		digits = n
	}

	period := otp.DefaultPeriod
	if v, ok := values["period"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n == 0 {
			return nil, fmt.Errorf("%w: period %q", keyerr.ErrInvalidURI, v)
		}
		period = n
	}

	var counter uint64
	if v, ok := values["counter"]; ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: counter %q", keyerr.ErrInvalidURI, v)
		}
		counter = n
	}

	return &URI{
		Kind:      kind,
		Issuer:    issuer,
		Account:   account,
		Secret:    secret,
		Algorithm: algorithm,
		Digits:    digits,
		Period:    period,
		Counter:   counter,
	}, nil
}

// splitLabel splits the raw, still percent-encoded label "issuer:account" on
// its first literal colon and percent-decodes each half, so a colon encoded
// as %3A inside the issuer stays part of it. A label with no literal colon
// is decoded first and then split on its first colon; with no colon at all
// the whole label is the account.
func splitLabel(raw string) (issuer, account string) {
	if i := strings.IndexByte(raw, ':'); i >= 0 {
		return percentDecode(raw[:i]), percentDecode(raw[i+1:])
	}
	label := percentDecode(raw)
	if i := strings.IndexByte(label, ':'); i >= 0 {
		return label[:i], label[i+1:]
	}
	return "", label
}

func parseQuery(q string) (map[string]string, error) {
	values := make(map[string]string)
	if q == "" {
		return values, nil
	}
	for _, pair := range strings.Split(q, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		values[strings.ToLower(k)] = percentDecode(v)
	}
	return values, nil
}

// Emit serializes a URI back to otpauth:// form per §4.E's field order.
func Emit(u *URI) string {
	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString(string(u.Kind))
	b.WriteByte('/')
	b.WriteString(percentEncode(u.Issuer))
	b.WriteByte(':')
	b.WriteString(percentEncode(u.Account))
	b.WriteByte('?')

	b.WriteString("secret=")
	b.WriteString(base32Enc.EncodeToString(u.Secret))

	b.WriteString("&algorithm=")
	b.WriteString(string(u.Algorithm))

	b.WriteString("&digits=")
	b.WriteString(strconv.Itoa(u.Digits))

	b.WriteString("&issuer=")
	b.WriteString(percentEncode(u.Issuer))

	switch u.Kind {
	case TOTP:
		b.WriteString("&period=")
		b.WriteString(strconv.Itoa(u.Period))
	case HOTP:
		b.WriteString("&counter=")
		b.WriteString(strconv.FormatUint(u.Counter, 10))
	default:
		// Defensive: emit both for any future kind. Strict readers will
		// reject this; no such kind exists today.
		b.WriteString("&period=")
		b.WriteString(strconv.Itoa(u.Period))
		b.WriteString("&counter=")
		b.WriteString(strconv.FormatUint(u.Counter, 10))
	}

	return b.String()
}

// isUnreserved reports whether b is in A-Z a-z 0-9 - _ . ~, the set that
// percentEncode leaves untouched.
func isUnreserved(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	case b == '-' || b == '_' || b == '.' || b == '~':
		return true
	default:
		return false
	}
}

func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isUnreserved(c):
			b.WriteByte(c)
		case c == ' ':
			b.WriteString("%20")
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

// percentDecode decodes %HH sequences and '+' as space. An incomplete or
// invalid %-escape is emitted literally. The resulting bytes are treated as
// UTF-8, with lossy replacement of invalid sequences.
func percentDecode(s string) string {
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '+':
			buf = append(buf, ' ')
		case '%':
			if i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
				buf = append(buf, hexVal(s[i+1])<<4|hexVal(s[i+2]))
				i += 2
			} else {
				buf = append(buf, '%')
			}
		default:
			buf = append(buf, s[i])
		}
	}
	return strings.ToValidUTF8(string(buf), "�")
}

func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexVal(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	default:
		return b - 'A' + 10
	}
}
