package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"fyne.io/fyne/v2/app"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ytget/yt-batch/internal/config"
	"github.com/ytget/yt-batch/internal/download"
	"github.com/ytget/yt-batch/internal/locale"
	"github.com/ytget/yt-batch/internal/logging"
	"github.com/ytget/yt-batch/internal/platform"
	"github.com/ytget/yt-batch/internal/ui"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppID   = "com.ytget.yt-batch"
	AppName = "YT Batch"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", config.DefaultPath(), "Configuration file path")
		langDir    = pflag.String("lang-dir", locale.DirFromEnv(), "Directory with language_<code>.json files")
		verbose    = pflag.BoolP("verbose", "v", false, "Enable debug logging")
		noInstall  = pflag.Bool("no-install", false, "Do not download yt-dlp when it is missing")
	)
	pflag.Parse()

	logger, err := logging.New(logging.Options{Verbose: *verbose})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger, *configPath, *langDir, !*noInstall); err != nil {
		logger.Error("exiting", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(logger *zap.Logger, configPath, langDir string, autoInstall bool) error {
	logger.Info("starting", zap.String("app", AppName), zap.String("version", version),
		zap.String("config", configPath))

	lock, err := config.AcquireInstanceLock(configPath)
	if errors.Is(err, config.ErrLocked) {
		return fmt.Errorf("%s is already running", AppName)
	}
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Warn("using default settings", zap.Error(err))
	}
	store := config.NewStore(configPath, cfg)

	catalog, err := locale.LoadDir(langDir)
	if err != nil {
		logger.Warn("some locale files were not loaded", zap.String("dir", langDir), zap.Error(err))
	}

	runner := download.NewYTDLPRunner(logger)
	runner.AutoInstall = autoInstall
	downloadSvc := download.NewService(runner, logger)
	downloadSvc.SetExpander(platform.NewPlaylistExpander(nil, logger))

	a := app.NewWithID(AppID)
	a.Settings().SetTheme(ui.NewCompactTheme())
	w := a.NewWindow(AppName)

	root := ui.NewRootUI(a, w, store, downloadSvc, ui.NewLocalization(catalog, cfg.Language), logger)
	a.Lifecycle().SetOnStarted(root.CheckClipboard)
	a.Lifecycle().SetOnEnteredForeground(root.CheckClipboard)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := locale.Watch(ctx, langDir, logger, root.SetCatalog); err != nil {
			logger.Debug("locale directory is not watched", zap.Error(err))
		}
	}()

	w.ShowAndRun()

	downloadSvc.Stop()
	if err := store.Flush(); err != nil {
		logger.Error("failed to save settings", zap.Error(err))
	}
	logger.Info("stopped")
	return nil
}
