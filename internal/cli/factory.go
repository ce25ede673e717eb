package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/loam"

	"github.com/aretw0/ingest"
	"github.com/aretw0/ingest/internal/config"
	"github.com/aretw0/ingest/internal/logging"
	"github.com/aretw0/ingest/pkg/adapters/file"
	loamAdapter "github.com/aretw0/ingest/pkg/adapters/loam"
	"github.com/aretw0/ingest/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/ingest/pkg/adapters/redis"
	"github.com/aretw0/ingest/pkg/forms"
	"github.com/aretw0/ingest/pkg/observability"
	"github.com/aretw0/ingest/pkg/pack"
	"github.com/aretw0/ingest/pkg/persistence/middleware"
	"github.com/aretw0/ingest/pkg/ports"
)

// Stack is a Wizard together with the collaborators the commands reach directly.
type Stack struct {
	Wizard  *ingest.Wizard
	Store   ports.StateStore
	Objects ports.ObjectStore
	Forms   *forms.Engine
	Steps   ports.StepRegistry
	Packs   *pack.Registry
	Metrics *observability.Metrics
	Logger  *slog.Logger

	redis   *redisAdapter.Store
	closers []func() error
}

// Close releases network clients opened by Build.
func (s *Stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// NewLogger creates the application logger. Logs go to w so Stdout stays
// free for the wizard itself.
func NewLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if cfg.Format == "json" {
		return logging.NewJSON(w, level), nil
	}
	return logging.NewText(w, level), nil
}

// Build wires a Wizard from the configuration. extra options are applied
// after the configured ones.
func Build(cfg config.Config, logger *slog.Logger, extra ...ingest.Option) (*Stack, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Stack{Logger: logger, Metrics: observability.NewMetrics()}

	store, err := s.buildStore(cfg.Store)
	if err != nil {
		return nil, errors.Join(err, s.Close())
	}
	s.Store = store

	objects, err := buildObjects(cfg.Objects)
	if err != nil {
		return nil, errors.Join(err, s.Close())
	}
	s.Objects = objects

	fe := forms.NewEngine(forms.WithLogger(logger))
	forms.RegisterBuiltins(fe)
	s.Forms = fe

	registry := ports.MultiRegistry{}
	if !cfg.Steps.NoBuiltins {
		builtins := memory.NewRegistry()
		builtins.Register(memory.AnyModel, forms.BuiltinSteps()...)
		registry = append(registry, builtins)
	}
	if cfg.Steps.Dir != "" {
		steps, err := openStepSource(cfg.Steps.Dir)
		if err != nil {
			return nil, errors.Join(err, s.Close())
		}
		registry = append(registry, steps)
	}
	s.Packs = pack.NewRegistry()
	if cfg.Steps.Packs != "" {
		if err := s.Packs.LoadDir(cfg.Steps.Packs); err != nil {
			return nil, errors.Join(fmt.Errorf("failed to load packs: %w", err), s.Close())
		}
		s.Packs.ProvideIncludes(fe)
		registry = append(registry, s.Packs)
	}

	s.Steps = registry

	opts := []ingest.Option{
		ingest.WithLogger(logger),
		ingest.WithStateStore(s.Store),
		ingest.WithObjectStore(s.Objects),
		ingest.WithForms(fe),
		ingest.WithRegistry(registry),
		ingest.WithLifecycleHooks(observability.Combine(
			observability.LoggingHooks(logger),
			s.Metrics.Hooks(),
		)),
		ingest.WithDefaultNamespace(cfg.Wizard.Namespace),
		ingest.WithDefaultLabel(cfg.Wizard.Label),
	}
	if cfg.Store.Redis.Lock {
		client := s.redis
		if client == nil {
			client = redisAdapter.New(cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB)
			s.closers = append(s.closers, client.Close)
		}
		prefix := cfg.Store.Redis.Prefix
		if prefix == "" {
			prefix = redisAdapter.DefaultPrefix
		}
		opts = append(opts, ingest.WithLocker(redisAdapter.NewLocker(client.Client(), prefix)))
	}
	opts = append(opts, extra...)

	s.Wizard = ingest.New(opts...)
	return s, nil
}

// buildStore opens the session store and wraps it with the configured
// middlewares. PII masking runs before encryption.
func (s *Stack) buildStore(cfg config.StoreConfig) (ports.StateStore, error) {
	var store ports.StateStore
	switch cfg.Kind {
	case config.KindMemory:
		store = memory.NewStore()
	case config.KindFile:
		store = file.New(cfg.Path)
	case config.KindRedis:
		opts := []redisAdapter.Option{redisAdapter.WithTTL(cfg.Redis.TTL)}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redisAdapter.WithPrefix(cfg.Redis.Prefix))
		}
		s.redis = redisAdapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		s.closers = append(s.closers, s.redis.Close)
		store = s.redis
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Kind)
	}

	var mws []middleware.Middleware
	if len(cfg.PII) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.PII))
	}
	if cfg.EncryptionKey != "" {
		enc, err := encryptionConfig(cfg)
		if err != nil {
			return nil, err
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(enc))
	}
	return middleware.Chain(store, mws...), nil
}

func encryptionConfig(cfg config.StoreConfig) (middleware.EncryptionConfig, error) {
	active, err := middleware.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return middleware.EncryptionConfig{}, fmt.Errorf("invalid encryption key: %w", err)
	}
	enc := middleware.EncryptionConfig{ActiveKey: active}
	for _, k := range cfg.PreviousKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return middleware.EncryptionConfig{}, fmt.Errorf("invalid previous key: %w", err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	return enc, nil
}

func buildObjects(cfg config.ObjectsConfig) (ports.ObjectStore, error) {
	switch cfg.Kind {
	case config.KindMemory:
		return memory.NewObjectStore(memory.WithBaseURL(cfg.BaseURL)), nil
	case config.KindLoam:
		absPath, err := filepath.Abs(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		if err := os.MkdirAll(absPath, 0755); err != nil {
			return nil, fmt.Errorf("failed to create object directory: %w", err)
		}
		repo, err := loam.Init(absPath, loam.WithVersioning(false))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize loam: %w", err)
		}
		var opts []loamAdapter.ObjectOption
		if cfg.BaseURL != "" {
			opts = append(opts, loamAdapter.WithLocationPrefix(cfg.BaseURL))
		}
		return loamAdapter.NewObjectStore(repo, opts...), nil
	default:
		return nil, fmt.Errorf("unknown object store %q", cfg.Kind)
	}
}

// openStepSource reads step documents without ever writing to dir.
func openStepSource(dir string) (*loamAdapter.StepSource, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return loamAdapter.NewStepSource(repo), nil
}
