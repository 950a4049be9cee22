package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/ytget/yt-batch/internal/platform"
)

// Download types persisted under "download_type".
const (
	DownloadCombined  = "combined"
	DownloadVideo     = "video"
	DownloadAudio     = "audio"
	DownloadSubtitles = "subtitles"
)

// Default values
const (
	DefaultDownloadType = DownloadCombined
	DefaultVideoFormat  = "mp4"
	DefaultAudioFormat  = "mp3"
	DefaultQuality      = "Auto"
	DefaultLanguage     = "en"
	FallbackDownloadDir = "/tmp/downloads"

	appDirName     = "yt-batch"
	configFileName = "config.json"
	lockSuffix     = ".lock"
	instanceSuffix = ".instance"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "YT_BATCH_CONFIG"

var (
	// ErrLocked is returned when another instance holds the config.
	ErrLocked = errors.New("config is in use by another instance")
	// ErrCorrupt wraps decode failures; defaults are returned alongside it.
	ErrCorrupt = errors.New("config file is corrupt")
)

// Config is the flat set of user preferences persisted as JSON.
type Config struct {
	Path               string `json:"path"`
	Prefix             string `json:"prefix"`
	DownloadType       string `json:"download_type"`
	VideoFormat        string `json:"video_format"`
	AudioFormat        string `json:"audio_format"`
	VideoQuality       string `json:"video_quality"`
	VideoQualityCustom string `json:"video_quality_custom"`
	AudioQuality       string `json:"audio_quality"`
	AudioQualityCustom string `json:"audio_quality_custom"`
	Proxy              string `json:"proxy"`
	FFmpegPath         string `json:"ffmpeg_path"`
	Language           string `json:"language"`
	ExtraParams        string `json:"extra_params"`
	ExpandPlaylists    bool   `json:"expand_playlists"`
}

// Default returns the preferences used when nothing has been saved yet.
func Default() Config {
	dir, err := platform.GetHomeDownloadsDir()
	if err != nil {
		dir = FallbackDownloadDir
	}
	return Config{
		Path:         dir,
		DownloadType: DefaultDownloadType,
		VideoFormat:  DefaultVideoFormat,
		AudioFormat:  DefaultAudioFormat,
		VideoQuality: DefaultQuality,
		AudioQuality: DefaultQuality,
		Language:     DefaultLanguage,
	}
}

// DefaultPath returns the config location: $YT_BATCH_CONFIG if set, else
// <user config dir>/yt-batch/config.json, else ./config.json.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return configFileName
	}
	return filepath.Join(dir, appDirName, configFileName)
}

// Load reads path over Default(). A missing file is not an error. A corrupt
// file returns the defaults together with an error wrapping ErrCorrupt.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	loaded := cfg
	if err := json.Unmarshal(data, &loaded); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	return loaded, nil
}

// Save writes cfg to path atomically while holding the config file lock.
func Save(path string, cfg Config) error {
	if err := platform.CreateDirectoryIfNotExists(filepath.Dir(path)); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	lock := flock.New(path + lockSuffix)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock config: %w", err)
	}
	defer lock.Unlock()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

// AcquireInstanceLock takes a non-blocking lock next to the config file so
// two GUI instances do not overwrite each other's preferences.
func AcquireInstanceLock(path string) (*flock.Flock, error) {
	if err := platform.CreateDirectoryIfNotExists(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	lock := flock.New(path + instanceSuffix)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire instance lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return lock, nil
}

// Store holds the live preferences and persists them on every change.
type Store struct {
	path string
	mu   sync.Mutex
	cfg  Config
}

// NewStore creates a store for path seeded with cfg.
func NewStore(path string, cfg Config) *Store {
	return &Store{path: path, cfg: cfg}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Get returns a copy of the current preferences.
func (s *Store) Get() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Update applies fn and writes the result to disk.
func (s *Store) Update(fn func(*Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg
	fn(&next)
	if next == s.cfg {
		return nil
	}
	if err := Save(s.path, next); err != nil {
		return err
	}
	s.cfg = next
	return nil
}

// Flush writes the current preferences unconditionally.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Save(s.path, s.cfg)
}
