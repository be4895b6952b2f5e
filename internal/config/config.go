package config

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/toastkit/internal/errors"
	"github.com/vango-dev/toastkit/pkg/toast"
)

// BaseName is the file name, without extension, that Find looks for.
const BaseName = "toastkit"

// Extensions lists the supported config file extensions in the order Find
// tries them.
var Extensions = []string{".json", ".toml", ".yaml", ".yml"}

// Config is the file form of toast.Config. Pointer fields distinguish
// "unset" from the zero value so files can be layered with Merge.
type Config struct {
	// Channel names the toast stack.
	Channel string `json:"channel,omitempty" toml:"channel,omitempty" yaml:"channel,omitempty"`

	// AutoDismiss is the default for toasts that do not set it.
	AutoDismiss *bool `json:"autoDismiss,omitempty" toml:"autoDismiss,omitempty" yaml:"autoDismiss,omitempty"`

	// AutoDismissTimeoutMs is the default countdown in milliseconds.
	AutoDismissTimeoutMs *int64 `json:"autoDismissTimeoutMs,omitempty" toml:"autoDismissTimeoutMs,omitempty" yaml:"autoDismissTimeoutMs,omitempty"`

	// Placement is one of the six screen regions, e.g. "bottom-left".
	Placement string `json:"placement,omitempty" toml:"placement,omitempty" yaml:"placement,omitempty"`

	// TransitionDurationMs is the enter/exit transition length in milliseconds.
	TransitionDurationMs *int64 `json:"transitionDurationMs,omitempty" toml:"transitionDurationMs,omitempty" yaml:"transitionDurationMs,omitempty"`

	// NewestOnTop inserts new toasts at the front of the stack.
	NewestOnTop *bool `json:"newestOnTop,omitempty" toml:"newestOnTop,omitempty" yaml:"newestOnTop,omitempty"`

	// PauseOnHover pauses countdowns while the pointer is over a toast.
	PauseOnHover *bool `json:"pauseOnHover,omitempty" toml:"pauseOnHover,omitempty" yaml:"pauseOnHover,omitempty"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `json:"logLevel,omitempty" toml:"logLevel,omitempty" yaml:"logLevel,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// Load reads a config file, choosing the parser by extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("T100").
				WithDetail("No config file at " + path).
				WithSuggestion("Check the --config path or create " + BaseName + ".json")
		}
		return nil, errors.New("T101").Wrap(err).WithDetail(err.Error())
	}

	cfg, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	cfg.configPath = path
	return cfg, nil
}

// Parse decodes data in the format implied by name's extension and
// validates the result. name is used for error locations only.
func Parse(name string, data []byte) (*Config, error) {
	cfg := &Config{}

	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			te := errors.New("T101").Wrap(err).WithDetail(err.Error())
			var syn *json.SyntaxError
			if stderrors.As(err, &syn) {
				line, col := offsetToLineCol(data, syn.Offset)
				te.WithLocation(name, line, col)
			}
			return nil, te.WithSuggestion("Check that " + filepath.Base(name) + " is valid JSON")
		}
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			te := errors.New("T101").Wrap(err).WithDetail(err.Error())
			var perr toml.ParseError
			if stderrors.As(err, &perr) {
				te.WithLocation(name, perr.Position.Line, 0)
			}
			return nil, te.WithSuggestion("Check that " + filepath.Base(name) + " is valid TOML")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New("T101").
				WithDetail(fmt.Sprintf("unknown key %q", undecoded[0].String())).
				WithSuggestion(knownKeys)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document decodes to an empty Config.
		if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
			return nil, errors.New("T101").Wrap(err).WithDetail(err.Error()).
				WithSuggestion("Check that " + filepath.Base(name) + " is valid YAML")
		}
	default:
		return nil, errors.New("T102").
			WithDetail(fmt.Sprintf("%q has extension %q", name, ext))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

const knownKeys = "Known keys: channel, autoDismiss, autoDismissTimeoutMs, placement, transitionDurationMs, newestOnTop, pauseOnHover, logLevel"

// offsetToLineCol converts a byte offset into 1-based line and column.
func offsetToLineCol(data []byte, offset int64) (int, int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, col := 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

// Find looks for toastkit.{json,toml,yaml,yml} in dir and its parents and
// returns the first path found.
func Find(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for cur := abs; ; {
		for _, ext := range Extensions {
			path := filepath.Join(cur, BaseName+ext)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", errors.New("T100").
				WithDetail("No " + BaseName + " config found in " + dir + " or any parent directory")
		}
		cur = parent
	}
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.AutoDismissTimeoutMs != nil && *c.AutoDismissTimeoutMs < 0 {
		return errors.New("T103").
			WithDetail(fmt.Sprintf("autoDismissTimeoutMs is %d", *c.AutoDismissTimeoutMs)).
			WithSuggestion("Use a positive number of milliseconds, e.g. 5000")
	}
	if c.TransitionDurationMs != nil && *c.TransitionDurationMs < 0 {
		return errors.New("T103").
			WithDetail(fmt.Sprintf("transitionDurationMs is %d", *c.TransitionDurationMs)).
			WithSuggestion("Use zero or a positive number of milliseconds, e.g. 220")
	}
	if c.Placement != "" {
		if _, err := toast.ParsePlacement(c.Placement); err != nil {
			return errors.New("T103").Wrap(err).
				WithDetail(fmt.Sprintf("placement %q is not one of %s", c.Placement, placementList())).
				WithExample(`"placement": "bottom-left"`)
		}
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel. An empty level is info.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, errors.New("T103").Wrap(err).
			WithDetail(fmt.Sprintf("logLevel %q is not debug, info, warn or error", c.LogLevel))
	}
	return lvl, nil
}

// Merge returns a copy of c with every field set in over taking precedence.
func (c *Config) Merge(over *Config) *Config {
	out := &Config{}
	if c != nil {
		*out = *c
	}
	if over == nil {
		return out
	}
	if over.Channel != "" {
		out.Channel = over.Channel
	}
	if over.AutoDismiss != nil {
		out.AutoDismiss = over.AutoDismiss
	}
	if over.AutoDismissTimeoutMs != nil {
		out.AutoDismissTimeoutMs = over.AutoDismissTimeoutMs
	}
	if over.Placement != "" {
		out.Placement = over.Placement
	}
	if over.TransitionDurationMs != nil {
		out.TransitionDurationMs = over.TransitionDurationMs
	}
	if over.NewestOnTop != nil {
		out.NewestOnTop = over.NewestOnTop
	}
	if over.PauseOnHover != nil {
		out.PauseOnHover = over.PauseOnHover
	}
	if over.LogLevel != "" {
		out.LogLevel = over.LogLevel
	}
	return out
}

// Apply copies every set field onto dst.
func (c *Config) Apply(dst *toast.Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Channel != "" {
		dst.Channel = c.Channel
	}
	if c.AutoDismiss != nil {
		dst.AutoDismiss = *c.AutoDismiss
	}
	if c.AutoDismissTimeoutMs != nil {
		dst.AutoDismissTimeout = time.Duration(*c.AutoDismissTimeoutMs) * time.Millisecond
	}
	if c.Placement != "" {
		dst.Placement = toast.Placement(c.Placement)
	}
	if c.TransitionDurationMs != nil {
		dst.TransitionDuration = time.Duration(*c.TransitionDurationMs) * time.Millisecond
	}
	if c.NewestOnTop != nil {
		dst.NewestOnTop = *c.NewestOnTop
	}
	if c.PauseOnHover != nil {
		dst.PauseOnHover = *c.PauseOnHover
	}
	return nil
}

// ToastConfig returns toast.DefaultConfig with c applied.
func (c *Config) ToastConfig() (*toast.Config, error) {
	cfg := toast.DefaultConfig()
	if err := c.Apply(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func placementList() string {
	names := make([]string, len(toast.Placements))
	for i, p := range toast.Placements {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
