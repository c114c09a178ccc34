package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/arthur-debert/vendorsync/pkg/errors"
	"github.com/arthur-debert/vendorsync/pkg/logging"
	"github.com/arthur-debert/vendorsync/pkg/paths"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// EnvPrefix prefixes every environment override. Nested keys use a double
// underscore: VENDORSYNC_UPSTREAM__URL sets upstream.url.
const EnvPrefix = "VENDORSYNC_"

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New(errors.ErrInternal, "not implemented")
}

// Options select the sources layered over the defaults.
type Options struct {
	// ConfigFile is an explicit config file; it must exist. When empty the
	// user config file is loaded if present.
	ConfigFile string

	// Flags are dotted keys set on the command line.
	Flags map[string]interface{}
}

// Load builds the effective configuration.
func Load(opts Options) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	// 1. Compiled-in defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load default config")
	}

	// 2. User file
	configFile, err := userConfigFile(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), parserFor(configFile)); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load config from %s", configFile).
				WithDetail(errors.DetailPath, configFile)
		}
		logger.Debug().Str("file", configFile).Msg("Loaded user config")
	}

	// 3. Environment
	err = k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
	}

	// 4. Flags
	if len(opts.Flags) > 0 {
		if err := k.Load(confmap.Provider(opts.Flags, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load flags")
		}
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}

	if err := postProcess(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func userConfigFile(explicit string) (string, error) {
	if explicit != "" {
		p, err := paths.Expand(explicit)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(p); err != nil {
			return "", errors.Wrapf(err, errors.ErrConfigLoad, "config file %s not found", p).
				WithDetail(errors.DetailPath, p)
		}
		return p, nil
	}

	for _, candidate := range []string{
		paths.ConfigFile(),
		strings.TrimSuffix(paths.ConfigFile(), ".toml") + ".yaml",
	} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return toml.Parser()
	}
}

func postProcess(cfg *Config) error {
	if cfg.BaseDir == "" {
		cfg.BaseDir = paths.BaseDir()
	}
	if cfg.Target.Dir == "" {
		cfg.Target.Dir = "."
	}

	var err error
	if cfg.BaseDir, err = paths.Expand(cfg.BaseDir); err != nil {
		return err
	}
	if cfg.Target.Dir, err = paths.Expand(cfg.Target.Dir); err != nil {
		return err
	}
	if cfg.BuildFiles.TemplateDir != "" {
		if cfg.BuildFiles.TemplateDir, err = paths.Expand(cfg.BuildFiles.TemplateDir); err != nil {
			return err
		}
	}

	return cfg.Validate()
}

// Validate checks the settings every workflow depends on.
func (c *Config) Validate() error {
	required := map[string]string{
		"upstream.url":         c.Upstream.URL,
		"upstream.remote":      c.Upstream.Remote,
		"mirror_name":          c.MirrorName,
		"target.vendored_path": c.Target.VendoredPath,
		"version.file":         c.Version.File,
		"version.major_marker": c.Version.MajorMarker,
		"version.minor_marker": c.Version.MinorMarker,
		"version.build_marker": c.Version.BuildMarker,
		"version.patch_marker": c.Version.PatchMarker,
		"manifest.file":        c.Manifest.File,
		"commit.update":        c.Commit.Update,
	}
	for key, value := range required {
		if strings.TrimSpace(value) == "" {
			return errors.Newf(errors.ErrConfigParse, "%s must not be empty", key)
		}
	}

	if filepath.IsAbs(c.Target.VendoredPath) {
		return errors.Newf(errors.ErrConfigParse, "target.vendored_path must be relative, got %s", c.Target.VendoredPath)
	}
	if c.Target.CheckPattern != "" {
		re, err := regexp.Compile(c.Target.CheckPattern)
		if err != nil {
			return errors.Wrap(err, errors.ErrConfigParse, "invalid target.check_pattern")
		}
		if re.NumSubexp() < 1 {
			return errors.New(errors.ErrConfigParse, "target.check_pattern needs a capture group")
		}
	}
	if c.Embedder.File != "" {
		if filepath.IsAbs(c.Embedder.File) {
			return errors.Newf(errors.ErrConfigParse, "embedder.file must be relative, got %s", c.Embedder.File)
		}
		if strings.TrimSpace(c.Embedder.Marker) == "" || strings.TrimSpace(c.Embedder.Title) == "" {
			return errors.New(errors.ErrConfigParse, "embedder.marker and embedder.title must be set when embedder.file is")
		}
	}
	if c.BuildFiles.Threshold < 0 {
		return errors.New(errors.ErrConfigParse, "buildfiles.threshold must not be negative")
	}
	return nil
}
