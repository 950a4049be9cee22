// Package translate machine-translates a source locale file into other
// locales and writes one file per target.
package translate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/ytget/yt-batch/internal/locale"
)

// DefaultTargets are the locales generated when none are given.
var DefaultTargets = []string{"en", "ja", "fr", "de", "ru", "pt", "es", "ar", "bg", "is", "da", "nl", "it", "pl", "ro"}

// DefaultPattern is the output path; %s is the target code.
const DefaultPattern = "lang/language_%s.json"

// DefaultConcurrency is the number of targets translated at once.
const DefaultConcurrency = 4

// ErrNoSourceCode is returned when the source file lacks language_simple.
var ErrNoSourceCode = errors.New("source locale has no " + locale.KeyCode)

// Options controls TranslateFile.
type Options struct {
	Concurrency int
	Logger      *zap.Logger
	// OnUnit is called after every translated string, from several
	// goroutines.
	OnUnit func(lang string)
}

// LangReport summarizes one target.
type LangReport struct {
	Code       string
	Name       string
	Translated int
	Failed     int
	Errors     []error
	Path       string
}

// Report summarizes a TranslateFile run, ordered like the targets.
type Report struct {
	Source    string
	Languages []LangReport
}

// Failed returns the total number of strings that kept the source text.
func (r Report) Failed() int {
	n := 0
	for _, l := range r.Languages {
		n += l.Failed
	}
	return n
}

// Err joins every translation error.
func (r Report) Err() error {
	var errs []error
	for _, l := range r.Languages {
		errs = append(errs, l.Errors...)
	}
	return errors.Join(errs...)
}

// Units counts the strings TranslateFile sends per target.
func Units(src *locale.File) int {
	n := 0
	for _, key := range src.Keys() {
		if key == locale.KeyCode || key == locale.KeyName {
			continue
		}
		v, _ := src.Get(key)
		switch v.Kind {
		case locale.KindString:
			if v.Text != "" {
				n++
			}
		case locale.KindList:
			for _, item := range v.List {
				if item != "" {
					n++
				}
			}
		}
	}
	return n
}

// TranslateFile produces one locale file per target. The source language
// is skipped. A failed string keeps the source text and is counted in the
// report; only a cancelled ctx or a source without a code returns an error.
func TranslateFile(ctx context.Context, tr Translator, src *locale.File, targets []string, opts Options) (map[string]*locale.File, Report, error) {
	srcCode := src.Code()
	if srcCode == "" {
		return nil, Report{}, ErrNoSourceCode
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	targets = uniqueTargets(targets, srcCode)
	report := Report{Source: srcCode, Languages: make([]LangReport, len(targets))}
	files := make(map[string]*locale.File, len(targets))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, lang := range targets {
		g.Go(func() error {
			logger.Info("translating locale", zap.String("from", srcCode), zap.String("to", lang))
			f, lr := translateOne(gctx, tr, src, srcCode, lang, opts.OnUnit)
			if err := gctx.Err(); err != nil {
				return err
			}
			logger.Info("locale translated", zap.String("lang", lang),
				zap.Int("translated", lr.Translated), zap.Int("failed", lr.Failed))

			mu.Lock()
			files[lang] = f
			report.Languages[i] = lr
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, report, err
	}
	return files, report, nil
}

func translateOne(ctx context.Context, tr Translator, src *locale.File, srcCode, lang string, onUnit func(string)) (*locale.File, LangReport) {
	lr := LangReport{Code: lang, Name: DisplayName(lang)}
	out := locale.NewFile()

	text := func(key, s string) string {
		if s == "" || ctx.Err() != nil {
			return s
		}
		got, err := tr.Translate(ctx, s, srcCode, lang)
		if onUnit != nil {
			onUnit(lang)
		}
		if err != nil {
			lr.Failed++
			lr.Errors = append(lr.Errors, fmt.Errorf("%s %q: %w", lang, key, err))
			return s
		}
		lr.Translated++
		return got
	}

	for _, key := range src.Keys() {
		v, _ := src.Get(key)
		switch {
		case key == locale.KeyCode:
			out.Set(key, locale.String(lang))
		case key == locale.KeyName:
			out.Set(key, locale.String(lr.Name))
		case v.Kind == locale.KindString:
			out.Set(key, locale.String(text(key, v.Text)))
		case v.Kind == locale.KindList:
			items := make([]string, len(v.List))
			for i, item := range v.List {
				items[i] = text(key, item)
			}
			out.Set(key, locale.List(items))
		default:
			out.Set(key, v)
		}
	}
	return out, lr
}

// DisplayName returns the capitalized English name of code, or code itself
// when it is not a valid BCP 47 tag.
func DisplayName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	name := display.English.Languages().Name(tag)
	if name == "" {
		return code
	}
	return capitalize(name)
}

// capitalize upper-cases the first letter of s and lower-cases the rest, so
// "Chinese (Simplified)" becomes "Chinese (simplified)".
func capitalize(s string) string {
	_, size := utf8.DecodeRuneInString(s)
	return cases.Upper(language.English).String(s[:size]) + cases.Lower(language.English).String(s[size:])
}

// Targets returns the target codes TranslateFile will produce for src:
// duplicates and the source language dropped, order kept.
func Targets(src *locale.File, targets []string) []string {
	return uniqueTargets(targets, src.Code())
}

// uniqueTargets drops duplicates and the source language, keeping order.
func uniqueTargets(targets []string, src string) []string {
	seen := map[string]bool{strings.ToLower(src): true}
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		t = strings.TrimSpace(t)
		if t == "" || seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		out = append(out, t)
	}
	return out
}

// WriteFiles writes each file to fmt.Sprintf(pattern, code), creating
// directories. It returns the written paths keyed by code.
func WriteFiles(pattern string, files map[string]*locale.File) (map[string]string, error) {
	codes := make([]string, 0, len(files))
	for code := range files {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	paths := make(map[string]string, len(files))
	var errs []error
	for _, code := range codes {
		path := fmt.Sprintf(pattern, code)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			errs = append(errs, fmt.Errorf("create %s: %w", filepath.Dir(path), err))
			continue
		}
		if err := locale.WriteFile(path, files[code]); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", path, err))
			continue
		}
		paths[code] = path
	}
	return paths, errors.Join(errs...)
}
