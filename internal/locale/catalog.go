// Package locale loads the per-language JSON message files used by the GUI
// and by the locale translator. Every lookup falls back to the embedded
// English catalog and finally to the key itself.
package locale

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Well-known keys.
const (
	KeyCode          = "language_simple"
	KeyName          = "language_name"
	KeyDownloadTypes = "download_types"
)

// DefaultLanguage is the embedded fallback locale.
const DefaultLanguage = "en"

// DefaultDir is where locale files live relative to the working directory.
const DefaultDir = "lang"

// Filename prefixes stripped when deriving a locale code from a file name.
var filePrefixes = []string{"language_", "lang_"}

var (
	// ErrMissingCode is reported for files without language_simple.
	ErrMissingCode = errors.New("missing " + KeyCode)
	// ErrCodeMismatch is reported when language_simple differs from the file name.
	ErrCodeMismatch = errors.New(KeyCode + " does not match file name")
)

//go:embed default_en.json
var defaultEnglish []byte

// Language is a selectable UI language.
type Language struct {
	Code string
	Name string
}

// Catalog holds every loaded locale keyed by language code.
type Catalog struct {
	files    map[string]*File
	fallback *File
}

// Builtin returns a catalog that only knows the embedded English locale.
func Builtin() *Catalog {
	en := mustDefault()
	return &Catalog{
		files:    map[string]*File{DefaultLanguage: en},
		fallback: en,
	}
}

func mustDefault() *File {
	f, err := Decode(bytes.NewReader(defaultEnglish))
	if err != nil {
		panic(fmt.Sprintf("embedded locale is invalid: %v", err))
	}
	return f
}

// CodeFromFilename derives the locale code from a file name:
// "language_ja.json" and "lang_ja.json" both give "ja".
func CodeFromFilename(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	for _, p := range filePrefixes {
		if strings.HasPrefix(base, p) {
			return strings.TrimPrefix(base, p)
		}
	}
	return base
}

// LoadDir builds a catalog from the built-in English locale plus every
// *.json file in dir. A missing dir is not an error. Files that cannot be
// used are skipped; code mismatches are reported but the file is kept.
// The returned catalog is always usable; err joins the per-file problems.
func LoadDir(dir string) (*Catalog, error) {
	c := Builtin()

	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return c, fmt.Errorf("list locale files: %w", err)
	}
	sort.Strings(paths)

	var errs []error
	for _, path := range paths {
		f, err := ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		if err := checkCode(path, f); err != nil {
			errs = append(errs, err)
			if errors.Is(err, ErrMissingCode) {
				continue
			}
		}
		c.files[f.Code()] = f
	}
	return c, errors.Join(errs...)
}

// Validate checks that language_simple of every locale file in dir matches
// the code derived from its file name.
func Validate(dir string) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return err
	}
	var errs []error
	for _, path := range paths {
		f, err := ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		if err := checkCode(path, f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// checkCode compares language_simple with the file name. Locale codes are
// case-insensitive, so "zh-cn" matches "zh-CN".
func checkCode(path string, f *File) error {
	code := f.Code()
	if code == "" {
		return fmt.Errorf("%s: %w", path, ErrMissingCode)
	}
	if derived := CodeFromFilename(path); !strings.EqualFold(derived, code) {
		return fmt.Errorf("%s: %w (%q vs %q)", path, ErrCodeMismatch, code, derived)
	}
	return nil
}

// Has reports whether lang is loaded.
func (c *Catalog) Has(lang string) bool {
	_, ok := c.files[lang]
	return ok
}

// File returns the locale file for lang.
func (c *Catalog) File(lang string) (*File, bool) {
	f, ok := c.files[lang]
	return f, ok
}

// Name returns the display name of lang.
func (c *Catalog) Name(lang string) string {
	if f, ok := c.files[lang]; ok && f.Name() != "" {
		return f.Name()
	}
	return capitalize(lang)
}

// Languages returns all loaded languages sorted by display name.
func (c *Catalog) Languages() []Language {
	langs := make([]Language, 0, len(c.files))
	for code := range c.files {
		langs = append(langs, Language{Code: code, Name: c.Name(code)})
	}
	sort.Slice(langs, func(i, j int) bool {
		if langs[i].Name == langs[j].Name {
			return langs[i].Code < langs[j].Code
		}
		return langs[i].Name < langs[j].Name
	})
	return langs
}

// Text returns the message for key in lang with {name} placeholders
// replaced from args.
func (c *Catalog) Text(lang, key string, args map[string]any) string {
	msg, ok := c.lookupText(lang, key)
	if !ok {
		return key
	}
	return Format(msg, args)
}

func (c *Catalog) lookupText(lang, key string) (string, bool) {
	if f, ok := c.files[lang]; ok {
		if s, ok := f.Text(key); ok {
			return s, true
		}
	}
	return c.fallback.Text(key)
}

// List returns the list stored under key in lang, falling back to English
// when lang lacks it or stores something other than a non-empty list.
func (c *Catalog) List(lang, key string) []string {
	if f, ok := c.files[lang]; ok {
		if v, ok := f.Get(key); ok && v.Kind == KindList && len(v.List) > 0 {
			return append([]string(nil), v.List...)
		}
	}
	if v, ok := c.fallback.Get(key); ok && v.Kind == KindList {
		return append([]string(nil), v.List...)
	}
	return nil
}

// Format replaces {name} placeholders in msg. Unknown placeholders are left
// untouched.
func Format(msg string, args map[string]any) string {
	if len(args) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	pairs := make([]string, 0, len(args)*2)
	for k, v := range args {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

// DirFromEnv returns $YT_BATCH_LANG_DIR or DefaultDir.
func DirFromEnv() string {
	if d := os.Getenv("YT_BATCH_LANG_DIR"); d != "" {
		return d
	}
	return DefaultDir
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
