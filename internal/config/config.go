// Package config loads the ingest.yaml settings shared by the CLI commands.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/ingest/internal/logging"
	"github.com/aretw0/ingest/pkg/domain"
	"github.com/aretw0/ingest/pkg/persistence/middleware"
)

// DefaultFile is read when no --config flag is given. Its absence is not an error.
const DefaultFile = "ingest.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "INGEST_"

// Store kinds.
const (
	KindMemory = "memory"
	KindFile   = "file"
	KindRedis  = "redis"
	KindLoam   = "loam"
)

// Config is the root of ingest.yaml.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Objects ObjectsConfig `yaml:"objects"`
	Steps   StepsConfig   `yaml:"steps"`
	Wizard  WizardConfig  `yaml:"wizard"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// StoreConfig selects where wizard sessions live.
type StoreConfig struct {
	Kind  string      `yaml:"kind"`
	Path  string      `yaml:"path,omitempty"`
	Redis RedisConfig `yaml:"redis,omitempty"`

	// EncryptionKey enables encryption at rest (32 bytes, hex or base64).
	EncryptionKey string `yaml:"encryption_key,omitempty"`
	// PreviousKeys still decrypt sessions sealed before a rotation.
	PreviousKeys []string `yaml:"previous_keys,omitempty"`
	// PII lists regular expressions of field names masked before saving.
	PII []string `yaml:"pii,omitempty"`
}

// RedisConfig is used when the store or the locker is redis.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password,omitempty"`
	DB       int           `yaml:"db,omitempty"`
	Prefix   string        `yaml:"prefix,omitempty"`
	TTL      time.Duration `yaml:"ttl,omitempty"`
	// Lock serializes requests for one session across processes.
	Lock bool `yaml:"lock,omitempty"`
}

// ObjectsConfig selects where finalized objects are created.
type ObjectsConfig struct {
	Kind    string `yaml:"kind"`
	Path    string `yaml:"path,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// StepsConfig lists the step sources besides the built-in steps.
type StepsConfig struct {
	// Dir holds step definition documents.
	Dir string `yaml:"dir,omitempty"`
	// Packs holds solution pack manifests.
	Packs string `yaml:"packs,omitempty"`
	// NoBuiltins drops the object details and upload steps.
	NoBuiltins bool `yaml:"no_builtins,omitempty"`
}

// WizardConfig holds the defaults applied to new sessions.
type WizardConfig struct {
	Namespace string   `yaml:"namespace,omitempty"`
	Label     string   `yaml:"label,omitempty"`
	Models    []string `yaml:"models,omitempty"`
}

// ServerConfig configures `ingest serve`.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig configures the application logger.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Kind: KindFile,
			Path: ".ingest/sessions",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "ingest:session:",
				TTL:    24 * time.Hour,
			},
		},
		Objects: ObjectsConfig{
			Kind:    KindLoam,
			Path:    ".ingest/objects",
			BaseURL: "/objects",
		},
		Wizard: WizardConfig{
			Namespace: domain.DefaultNamespace,
			Label:     domain.DefaultLabel,
		},
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults and applies the environment.
// A missing DefaultFile is ignored; any other missing path is an error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(bytes.NewReader(data), &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Parse decodes a configuration document over the defaults.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	if err := decode(r, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides settings from INGEST_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}

	str("STORE", &c.Store.Kind)
	str("STORE_PATH", &c.Store.Path)
	str("ENCRYPTION_KEY", &c.Store.EncryptionKey)
	str("REDIS_ADDR", &c.Store.Redis.Addr)
	str("REDIS_PASSWORD", &c.Store.Redis.Password)
	str("REDIS_PREFIX", &c.Store.Redis.Prefix)
	str("OBJECTS", &c.Objects.Kind)
	str("OBJECTS_PATH", &c.Objects.Path)
	str("OBJECTS_BASE_URL", &c.Objects.BaseURL)
	str("STEPS_DIR", &c.Steps.Dir)
	str("PACKS_DIR", &c.Steps.Packs)
	str("NAMESPACE", &c.Wizard.Namespace)
	str("LABEL", &c.Wizard.Label)
	str("ADDR", &c.Server.Addr)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if v, ok := lookup(EnvPrefix + "REDIS_DB"); ok && v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sREDIS_DB: %w", EnvPrefix, err)
		}
		c.Store.Redis.DB = db
	}
	if v, ok := lookup(EnvPrefix + "REDIS_TTL"); ok && v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sREDIS_TTL: %w", EnvPrefix, err)
		}
		c.Store.Redis.TTL = ttl
	}
	if v, ok := lookup(EnvPrefix + "REDIS_LOCK"); ok && v != "" {
		lock, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sREDIS_LOCK: %w", EnvPrefix, err)
		}
		c.Store.Redis.Lock = lock
	}
	if v, ok := lookup(EnvPrefix + "MODELS"); ok && v != "" {
		c.Wizard.Models = splitList(v)
	}
	return nil
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Kind {
	case KindMemory, KindFile, KindRedis:
	default:
		errs = append(errs, fmt.Errorf("store.kind: unknown store %q", c.Store.Kind))
	}
	switch c.Objects.Kind {
	case KindMemory, KindLoam:
	default:
		errs = append(errs, fmt.Errorf("objects.kind: unknown store %q", c.Objects.Kind))
	}
	if c.Objects.Kind == KindLoam && c.Objects.Path == "" {
		errs = append(errs, errors.New("objects.path is required for the loam store"))
	}
	if c.Store.Kind == KindRedis || c.Store.Redis.Lock {
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr is required"))
		}
	}
	for _, k := range append([]string{c.Store.EncryptionKey}, c.Store.PreviousKeys...) {
		if k == "" {
			continue
		}
		if _, err := middleware.ParseKey(k); err != nil {
			errs = append(errs, fmt.Errorf("store.encryption_key: %w", err))
		}
	}
	for _, p := range c.Store.PII {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("store.pii: %w", err))
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
