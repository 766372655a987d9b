// Package config loads nomindex settings.
//
// Values are layered: built-in defaults, then an optional CUE file
// checked against the embedded #Config schema, then NOMINDEX_*
// environment variables.
package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/roach88/nomindex/internal/namehash"
)

//go:embed schema.cue
var schemaSource string

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "NOMINDEX_"

// Config is the full runtime configuration.
type Config struct {
	RootNode      string         `json:"root_node" env:"ROOT_NODE"`
	DisplaySuffix string         `json:"display_suffix" env:"DISPLAY_SUFFIX"`
	FailurePolicy string         `json:"failure_policy" env:"FAILURE_POLICY"`
	Store         StoreConfig    `json:"store" envPrefix:"STORE_"`
	Resolver      ResolverConfig `json:"resolver" envPrefix:"RESOLVER_"`
	Kafka         KafkaConfig    `json:"kafka" envPrefix:"KAFKA_"`
	HTTP          HTTPConfig     `json:"http" envPrefix:"HTTP_"`
	Runner        RunnerConfig   `json:"runner" envPrefix:"RUNNER_"`
	Log           LogConfig      `json:"log" envPrefix:"LOG_"`
}

type StoreConfig struct {
	Driver string `json:"driver" env:"DRIVER"`
	Path   string `json:"path" env:"PATH"`
	DSN    string `json:"dsn" env:"DSN"`
}

// ResolverConfig selects where label names come from. Both sources may
// be set; the file dictionary is consulted first.
type ResolverConfig struct {
	LabelsFile string `json:"labels_file" env:"LABELS_FILE"`
	RedisURL   string `json:"redis_url" env:"REDIS_URL"`
	RedisKey   string `json:"redis_key" env:"REDIS_KEY"`
	CacheSize  int    `json:"cache_size" env:"CACHE_SIZE"`
}

type KafkaConfig struct {
	Brokers []string `json:"brokers" env:"BROKERS" envSeparator:","`
	Topic   string   `json:"topic" env:"TOPIC"`
	Group   string   `json:"group" env:"GROUP"`
}

type HTTPConfig struct {
	Addr string `json:"addr" env:"ADDR"`
}

type RunnerConfig struct {
	BatchSize int      `json:"batch_size" env:"BATCH_SIZE"`
	IdleSleep Duration `json:"idle_sleep" env:"IDLE_SLEEP"`
}

type LogConfig struct {
	Level  string `json:"level" env:"LEVEL"`
	Format string `json:"format" env:"FORMAT"`
}

// Duration is a time.Duration written as a Go duration string ("200ms").
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		RootNode:      namehash.DefaultRoot.Hex(),
		DisplaySuffix: "." + namehash.DefaultTLD,
		FailurePolicy: "halt",
		Store:         StoreConfig{Driver: "sqlite", Path: "nomindex.db"},
		Resolver:      ResolverConfig{RedisKey: "nomindex:labels", CacheSize: 4096},
		Kafka:         KafkaConfig{Topic: "registrar-events", Group: "nomindex"},
		HTTP:          HTTPConfig{Addr: ":8080"},
		Runner:        RunnerConfig{BatchSize: 512, IdleSleep: Duration(200 * time.Millisecond)},
		Log:           LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds a Config from defaults, the CUE file at path (skipped when
// path is empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decodeCUE(path, data, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeCUE(filename string, data []byte, cfg *Config) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return formatCUEError(err)
	}
	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}

	b, err := unified.MarshalJSON()
	if err != nil {
		return formatCUEError(err)
	}
	if err := json.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// Validate checks values the schema cannot see, including anything set
// through the environment.
func (c Config) Validate() error {
	if _, err := c.Root(); err != nil {
		return err
	}
	switch c.FailurePolicy {
	case "halt", "skip":
	default:
		return &Error{Field: "failure_policy", Message: fmt.Sprintf("unknown policy %q", c.FailurePolicy)}
	}
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			return &Error{Field: "store.path", Message: "required for the sqlite driver"}
		}
	case "postgres":
		if c.Store.DSN == "" {
			return &Error{Field: "store.dsn", Message: "required for the postgres driver"}
		}
	default:
		return &Error{Field: "store.driver", Message: fmt.Sprintf("unknown driver %q", c.Store.Driver)}
	}
	if c.Runner.BatchSize <= 0 {
		return &Error{Field: "runner.batch_size", Message: "must be positive"}
	}
	if c.Resolver.CacheSize < 0 {
		return &Error{Field: "resolver.cache_size", Message: "must not be negative"}
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return &Error{Field: "log.format", Message: fmt.Sprintf("unknown format %q", c.Log.Format)}
	}
	return nil
}

// Root parses RootNode.
func (c Config) Root() (common.Hash, error) {
	b, err := hexutil.Decode(c.RootNode)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, &Error{Field: "root_node", Message: fmt.Sprintf("want 32 bytes of 0x-prefixed hex, got %q", c.RootNode)}
	}
	return common.BytesToHash(b), nil
}

// SlogLevel maps Level onto a slog.Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, &Error{Field: "log.level", Message: fmt.Sprintf("unknown level %q", l.Level)}
	}
	return lvl, nil
}

// Error reports an invalid setting, with a file position when it came
// from the CUE file.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	format, args := first.Msg()
	cfgErr := &Error{Field: "cue", Message: fmt.Sprintf(format, args...)}
	if p := first.Path(); len(p) > 0 {
		cfgErr.Field = strings.Join(p, ".")
	}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		cfgErr.Pos = positions[0]
	}
	return cfgErr
}
