package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/hupe1980/broadphase"
	"github.com/hupe1980/broadphase/testutil"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds every setting of the broadphase CLI. It is read from an
// optional YAML file; flags given on the command line take precedence.
type Config struct {
	Entities  int      `yaml:"entities"`
	Seed      int64    `yaml:"seed"`
	MaxRadius float32  `yaml:"max_radius"`
	Workers   int      `yaml:"workers"`
	Reserve   ByteSize `yaml:"reserve_size"`
	Commit    ByteSize `yaml:"commit_size"`
	Memory    ByteSize `yaml:"memory_limit"`
	Print     bool     `yaml:"print"`
	Save      bool     `yaml:"save"`

	Log   LogConfig   `yaml:"log"`
	Store StoreConfig `yaml:"store"`
}

// LogConfig selects the level and format of the structured log.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StoreConfig selects the blob store snapshots are written to.
type StoreConfig struct {
	Type        string   `yaml:"type"`
	Path        string   `yaml:"path"`
	Bucket      string   `yaml:"bucket"`
	Prefix      string   `yaml:"prefix"`
	Endpoint    string   `yaml:"endpoint"`
	Region      string   `yaml:"region"`
	AccessKey   string   `yaml:"access_key"`
	SecretKey   string   `yaml:"secret_key"`
	Secure      bool     `yaml:"secure"`
	Compression string   `yaml:"compression"`
	IOLimit     ByteSize `yaml:"io_limit"`
	Keep        int      `yaml:"keep"`
}

// DefaultConfig returns the configuration used when neither a file nor a flag
// sets a value.
func DefaultConfig() Config {
	return Config{
		Entities:  1000,
		Seed:      1,
		MaxRadius: testutil.DefaultMaxRadius,
		Workers:   1,
		Reserve:   ByteSize(broadphase.DefaultReserveSize),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Store: StoreConfig{
			Type:        "local",
			Path:        "snapshots",
			Compression: "lz4",
		},
	}
}

// RegisterFlags binds the configuration to fs. Defaults are taken from c.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.IntVarP(&c.Entities, "entities", "n", c.Entities, "Number of random entities to generate")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "Seed of the entity generator")
	fs.Float32Var(&c.MaxRadius, "max-radius", c.MaxRadius, "Upper bound of entity radii")
	fs.IntVarP(&c.Workers, "workers", "w", c.Workers, "Collision pass workers (1 runs the serial pass, 0 uses GOMAXPROCS)")
	fs.Var(&c.Reserve, "reserve-size", "Address space reserved for the world")
	fs.Var(&c.Commit, "commit-size", "Commit granule of the world arena (0 uses the default)")
	fs.Var(&c.Memory, "memory-limit", "Budget for committed memory (0 means unlimited)")
	fs.BoolVar(&c.Print, "print", c.Print, "Print every entity with its collisions")
	fs.BoolVar(&c.Save, "save", c.Save, "Save a snapshot of the world after the pass")

	fs.StringVar(&c.Log.Level, "log-level", c.Log.Level, "Log level (debug, info, warn, error)")
	fs.StringVar(&c.Log.Format, "log-format", c.Log.Format, "Log format (text, json)")

	fs.StringVar(&c.Store.Type, "store", c.Store.Type, "Snapshot store (memory, local, minio, s3)")
	fs.StringVar(&c.Store.Path, "store.path", c.Store.Path, "Directory of the local store")
	fs.StringVar(&c.Store.Bucket, "store.bucket", c.Store.Bucket, "Bucket of the minio or s3 store")
	fs.StringVar(&c.Store.Prefix, "store.prefix", c.Store.Prefix, "Key prefix inside the bucket")
	fs.StringVar(&c.Store.Endpoint, "store.endpoint", c.Store.Endpoint, "Endpoint of the minio store")
	fs.StringVar(&c.Store.Region, "store.region", c.Store.Region, "Region of the s3 store")
	fs.BoolVar(&c.Store.Secure, "store.secure", c.Store.Secure, "Use TLS for the minio store")
	fs.StringVar(&c.Store.Compression, "compression", c.Store.Compression, "Snapshot compression (none, lz4, zstd)")
	fs.Var(&c.Store.IOLimit, "io-limit", "Snapshot IO budget per second (0 means unlimited)")
	fs.IntVar(&c.Store.Keep, "keep", c.Store.Keep, "Snapshots to retain after saving (0 keeps all)")
}

// LoadConfig merges the YAML file at path into c. Flags already set on fs
// are re-applied afterwards so the command line wins over the file.
func LoadConfig(path string, c *Config, fs *pflag.FlagSet) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	changed := map[string]string{}
	fs.Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	for name, value := range changed {
		if err := fs.Set(name, value); err != nil {
			return fmt.Errorf("flag --%s: %w", name, err)
		}
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Entities < 0:
		return fmt.Errorf("entities must not be negative, got %d", c.Entities)
	case c.MaxRadius < 0:
		return fmt.Errorf("max radius must not be negative, got %g", c.MaxRadius)
	case c.Workers < 0:
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	case c.Store.Keep < 0:
		return fmt.Errorf("keep must not be negative, got %d", c.Store.Keep)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	switch c.Store.Type {
	case "memory", "local", "minio", "s3":
	default:
		return fmt.Errorf("unknown store %q", c.Store.Type)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
