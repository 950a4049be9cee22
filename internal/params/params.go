// Package params turns the free-text "extra parameters" field into downloader
// flags. Parsing is permissive: anything that does not look like a flag is
// dropped instead of reported.
package params

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/spf13/pflag"
)

// Parse splits s on whitespace and collects "--name value", "-n value" and
// "--name=value" pairs. A flag directly followed by another flag, or at the
// end of the input, is a switch and maps to "". Input without any flag yields
// an empty map.
func Parse(s string) map[string]string {
	result := make(map[string]string)
	tokens := strings.Fields(s)

	for i := 0; i < len(tokens); i++ {
		name, inline, hasInline, ok := flagName(tokens[i])
		if !ok {
			continue
		}
		if hasInline {
			result[name] = inline
			continue
		}
		if i+1 < len(tokens) {
			if _, _, _, next := flagName(tokens[i+1]); !next {
				result[name] = tokens[i+1]
				i++
				continue
			}
		}
		result[name] = ""
	}
	return result
}

// flagName reports whether tok is a long (--name, --name=value) or short (-n)
// flag and returns its name.
func flagName(tok string) (name, value string, hasValue, ok bool) {
	switch {
	case strings.HasPrefix(tok, "--"):
		body := tok[2:]
		if eq := strings.IndexByte(body, '='); eq > 0 {
			body, value, hasValue = body[:eq], body[eq+1:], true
		}
		if !isLongName(body) {
			return "", "", false, false
		}
		return body, value, hasValue, true
	case len(tok) == 2 && tok[0] == '-' && isASCIILetter(rune(tok[1])):
		return tok[1:], "", false, true
	}
	return "", "", false, false
}

func isLongName(s string) bool {
	if s == "" || s[0] == '-' {
		return false
	}
	for _, r := range s {
		if r != '-' && r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// Args renders m back into command-line arguments in key order.
func Args(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, 0, len(m)*2)
	for _, k := range keys {
		if len(k) == 1 {
			args = append(args, "-"+k)
		} else {
			args = append(args, "--"+k)
		}
		if v := m[k]; v != "" {
			args = append(args, v)
		}
	}
	return args
}

// Bind sets every entry of m that names a flag (or shorthand) defined on fs.
// Entries unknown to fs are returned unchanged for passthrough. Values that
// fs rejects are reported in err and leave the flag at its previous value;
// the remaining entries are still applied.
func Bind(fs *pflag.FlagSet, m map[string]string) (map[string]string, error) {
	rest := make(map[string]string)
	var errs []error

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		f := fs.Lookup(k)
		if f == nil && len(k) == 1 {
			f = fs.ShorthandLookup(k)
		}
		if f == nil {
			rest[k] = m[k]
			continue
		}
		value := m[k]
		if value == "" && f.NoOptDefVal != "" {
			value = f.NoOptDefVal
		}
		// pflag may store a zero value before rejecting the input.
		prev := f.Value.String()
		if err := fs.Set(f.Name, value); err != nil {
			_ = f.Value.Set(prev)
			errs = append(errs, fmt.Errorf("--%s: %w", f.Name, err))
		}
	}
	return rest, errors.Join(errs...)
}
