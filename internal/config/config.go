package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexflint/go-arg"

	"github.com/jmagar/vodgrab/internal/api"
	"github.com/jmagar/vodgrab/internal/download"
	"github.com/jmagar/vodgrab/internal/helpers"
	"github.com/jmagar/vodgrab/internal/model"
)

// ProgramName is used in usage output and config directory names.
const ProgramName = "vodgrab"

const (
	defaultOutPath           = "downloads"
	defaultTimeoutSeconds    = 30
	defaultRequestsPerSecond = 5
)

// LoadedConfigPath tracks which config file was loaded, empty when defaults were used.
var LoadedConfigPath string

// ParseArgsFrom parses argv (without the program name).
func ParseArgsFrom(argv []string) (*model.Args, *arg.Parser, error) {
	var args model.Args
	p, err := arg.NewParser(arg.Config{Program: ProgramName}, &args)
	if err != nil {
		return nil, nil, err
	}
	if err := p.Parse(argv); err != nil {
		return &args, p, err
	}
	return &args, p, nil
}

// ConfigPaths returns the locations searched for config.json, in order.
func ConfigPaths() []string {
	paths := []string{"config.json"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(homeDir, "."+ProgramName, "config.json"),
			filepath.Join(homeDir, ".config", ProgramName, "config.json"),
		)
	}
	return paths
}

// ReadConfig loads explicitPath, or the first config.json found in ConfigPaths.
// A missing file is only an error when explicitPath is set; otherwise an empty
// config is returned and defaults apply.
func ReadConfig(explicitPath string) (*model.Config, error) {
	LoadedConfigPath = ""
	paths := ConfigPaths()
	if explicitPath != "" {
		paths = []string{explicitPath}
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) && explicitPath == "" {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read config at %s: %w", path, err)
		}
		var obj model.Config
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, fmt.Errorf("failed to parse config at %s: %w", path, err)
		}
		LoadedConfigPath = path
		return &obj, nil
	}
	return &model.Config{}, nil
}

// ApplyDefaults fills every zero-valued field of cfg.
func ApplyDefaults(cfg *model.Config) {
	cfg.OutPath = strings.TrimSpace(cfg.OutPath)
	if cfg.OutPath == "" {
		cfg.OutPath = defaultOutPath
	}
	dirs := model.DefaultDirectories()
	for k, v := range cfg.Directories {
		if strings.TrimSpace(v) != "" {
			dirs[k] = strings.TrimSpace(v)
		}
	}
	cfg.Directories = dirs
	if cfg.SegmentConcurrency <= 0 {
		cfg.SegmentConcurrency = download.DefaultSegmentConcurrency()
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = defaultTimeoutSeconds
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRequestsPerSecond
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = api.DefaultUserAgent
	}
	if cfg.Twitch.ClientID == "" {
		cfg.Twitch.ClientID = api.DefaultTwitchClientID
	}
	if cfg.Twitch.GQLURL == "" {
		cfg.Twitch.GQLURL = api.DefaultTwitchGQLURL
	}
	if cfg.Twitch.UsherURL == "" {
		cfg.Twitch.UsherURL = api.DefaultTwitchUsherURL
	}
	if cfg.Twitch.ClipTokenHash == "" {
		cfg.Twitch.ClipTokenHash = api.DefaultClipTokenHash
	}
	if cfg.YouTube.APIBase == "" {
		cfg.YouTube.APIBase = api.DefaultYouTubeAPIBase
	}
}

// MergeArgs applies CLI flags over config file values.
func MergeArgs(cfg *model.Config, args *model.Args) {
	if args == nil {
		return
	}
	if strings.TrimSpace(args.OutPath) != "" {
		cfg.OutPath = strings.TrimSpace(args.OutPath)
	}
	if args.SegmentConcurrency > 0 {
		cfg.SegmentConcurrency = args.SegmentConcurrency
	}
	if args.APILog != "" {
		cfg.APILogPath = args.APILog
	}
	if args.Verbose {
		cfg.Verbose = true
	}
}

// Validate rejects configs the pipeline cannot run with.
func Validate(cfg *model.Config) error {
	if err := helpers.ValidatePath(cfg.OutPath); err != nil {
		return fmt.Errorf("invalid outPath: %w", err)
	}
	for k := range cfg.Directories {
		if model.ParseSourceKind(k) == model.SourceUnknown {
			return fmt.Errorf("invalid directories key %q", k)
		}
	}
	for _, dir := range cfg.Directories {
		if filepath.IsAbs(dir) || strings.Contains(filepath.ToSlash(dir), "..") {
			return fmt.Errorf("directory %q must be relative to outPath", dir)
		}
	}
	return nil
}

// Load reads the config file, merges args over it and fills defaults.
func Load(args *model.Args) (*model.Config, error) {
	explicit := ""
	if args != nil {
		explicit = args.ConfigPath
	}
	cfg, err := ReadConfig(explicit)
	if err != nil {
		return nil, err
	}
	MergeArgs(cfg, args)
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
