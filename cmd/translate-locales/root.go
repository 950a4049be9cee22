package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ytget/yt-batch/internal/locale"
	"github.com/ytget/yt-batch/internal/logging"
	"github.com/ytget/yt-batch/internal/translate"
)

// newTranslator is replaced in tests.
var newTranslator = func(proxy string, timeout time.Duration) translate.Translator {
	return translate.NewGoogleClient(proxy, timeout)
}

type rootOptions struct {
	source      string
	targets     []string
	out         string
	proxy       string
	timeout     time.Duration
	concurrency int
	verbose     bool
}

func newRootCommand() *cobra.Command {
	opts := rootOptions{
		source:      filepath.Join(locale.DefaultDir, "lang_zh-CN.json"),
		targets:     translate.DefaultTargets,
		out:         translate.DefaultPattern,
		timeout:     translate.DefaultTimeout,
		concurrency: translate.DefaultConcurrency,
	}

	cmd := &cobra.Command{
		Use:           "translate-locales",
		Short:         "Machine-translate the source locale into every target locale",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.source, "source", "s", opts.source, "Source locale file")
	flags.StringSliceVarP(&opts.targets, "targets", "t", opts.targets, "Target locale codes")
	flags.StringVarP(&opts.out, "out", "o", opts.out, "Output path pattern; %s is replaced by the locale code")
	flags.StringVar(&opts.proxy, "proxy", "", "HTTP proxy URL (defaults to HTTP_PROXY/HTTPS_PROXY)")
	flags.DurationVar(&opts.timeout, "timeout", opts.timeout, "Timeout per translation request")
	flags.IntVarP(&opts.concurrency, "concurrency", "j", opts.concurrency, "Locales translated in parallel")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newValidateCommand())
	return cmd
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [dir]",
		Short: "Check that language_simple matches every locale file name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := locale.DefaultDir
			if len(args) == 1 {
				dir = args[0]
			}
			if err := locale.Validate(dir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "All locale files in %s are consistent.\n", dir)
			return nil
		},
	}
}

func runTranslate(cmd *cobra.Command, opts rootOptions) error {
	if !strings.Contains(opts.out, "%s") {
		return fmt.Errorf("--out must contain %%s, got %q", opts.out)
	}

	logger, err := logging.New(logging.Options{Verbose: opts.verbose})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	src, err := locale.ReadFile(opts.source)
	if err != nil {
		return fmt.Errorf("read source locale: %w", err)
	}
	logger.Info("source locale loaded", zap.String("path", opts.source),
		zap.String("lang", src.Code()), zap.Int("keys", src.Len()))

	bar := newProgressBar(cmd.ErrOrStderr(), translate.Units(src)*len(translate.Targets(src, opts.targets)))
	tr := newTranslator(opts.proxy, opts.timeout)

	files, report, err := translate.TranslateFile(cmd.Context(), tr, src, opts.targets, translate.Options{
		Concurrency: opts.concurrency,
		Logger:      logger,
		OnUnit: func(string) {
			if bar != nil {
				_ = bar.Add(1)
			}
		},
	})
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	if err != nil {
		return err
	}

	paths, writeErr := translate.WriteFiles(opts.out, files)
	for i := range report.Languages {
		report.Languages[i].Path = paths[report.Languages[i].Code]
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderReport(report))

	if failed := report.Failed(); failed > 0 {
		logger.Warn("some strings kept the source text", zap.Int("failed", failed), zap.Error(report.Err()))
	}
	if writeErr != nil {
		return writeErr
	}
	logger.Info("translation completed", zap.Int("locales", len(paths)))
	return nil
}

// newProgressBar returns nil when w is not a terminal.
func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	f, ok := w.(*os.File)
	if !ok || total <= 0 {
		return nil
	}
	if fd := f.Fd(); !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("translating"),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func renderReport(r translate.Report) string {
	headers := []string{"Code", "Language", "Translated", "Failed", "File"}
	rows := make([][]string, 0, len(r.Languages))
	for _, l := range r.Languages {
		path := l.Path
		if path == "" {
			path = "-"
		}
		rows = append(rows, []string{
			l.Code,
			l.Name,
			strconv.Itoa(l.Translated),
			strconv.Itoa(l.Failed),
			path,
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft})
}
