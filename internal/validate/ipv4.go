// Package validate decides whether free text is an IPv4 address worth looking up.
package validate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// TagIPv4Dotted is the validator tag registered by this package
const TagIPv4Dotted = "ipv4_dotted"

// four dot-separated groups of 1-3 digits, nothing else
var dottedQuad = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)

// The stock "ipv4" tag rejects octets with leading zeros ("010.0.0.1"),
// which users do type and the pattern below accepts.
var ipv4Validator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation(TagIPv4Dotted, func(fl validator.FieldLevel) bool {
		return isDottedQuad(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// IsIPv4 reports whether candidate is four dot-separated decimal octets,
// each in 0..255. No trimming, no IPv6, no CIDR.
func IsIPv4(candidate string) bool {
	return ipv4Validator.Var(candidate, TagIPv4Dotted) == nil
}

func isDottedQuad(candidate string) bool {
	if !dottedQuad.MatchString(candidate) {
		return false
	}
	for _, part := range strings.Split(candidate, ".") {
		value, err := strconv.Atoi(part)
		if err != nil || value < 0 || value > 255 {
			return false
		}
	}
	return true
}
