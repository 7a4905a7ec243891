// Package config loads storyboard settings from a TOML file and the
// environment.
//
// Every field has a default, so a missing file is not an error. API keys
// and other secrets are read from the environment only and never from the
// file:
//
//	YOU_COM_API_KEY, OPENROUTER_API_KEY, FOXIT_CLIENT_ID, FOXIT_CLIENT_SECRET
//
// PORT, STORYBOARD_PROXY_URL, REDIS_ADDR and MONGO_URI override their file
// counterparts.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/storyboard/pkg/cache"
	"github.com/matzehuels/storyboard/pkg/canvas"
	"github.com/matzehuels/storyboard/pkg/canvas/interact"
	"github.com/matzehuels/storyboard/pkg/canvas/physics"
	"github.com/matzehuels/storyboard/pkg/enrich"
	"github.com/matzehuels/storyboard/pkg/errors"
	"github.com/matzehuels/storyboard/pkg/geom"
	"github.com/matzehuels/storyboard/pkg/store"
)

// Config is the complete configuration.
type Config struct {
	Canvas   Canvas   `toml:"canvas"`
	Physics  Physics  `toml:"physics"`
	Dispatch Dispatch `toml:"dispatch"`
	Server   Server   `toml:"server"`
	Cache    Cache    `toml:"cache"`
	Store    Store    `toml:"store"`
	Log      Log      `toml:"log"`

	// Keys come from the environment only.
	Keys enrich.Credentials `toml:"-"`
}

type Canvas struct {
	ZoomMin    float64 `toml:"zoom_min" validate:"gt=0"`
	ZoomMax    float64 `toml:"zoom_max" validate:"gtfield=ZoomMin"`
	ZoomStep   float64 `toml:"zoom_step" validate:"gt=1,lt=2"`
	NodeWidth  float64 `toml:"node_width" validate:"gt=0"`
	NodeHeight float64 `toml:"node_height" validate:"gt=0"`
	LODZoom    float64 `toml:"lod_zoom" validate:"gte=0"`
}

type Physics struct {
	Repulsion  float64 `toml:"repulsion" validate:"gte=0"`
	Attraction float64 `toml:"attraction" validate:"gte=0"`
	Damping    float64 `toml:"damping" validate:"gt=0,lt=1"`
	RestLength float64 `toml:"rest_length" validate:"gte=0"`
	DistFloor  float64 `toml:"dist_floor" validate:"gt=0"`
	Workers    int     `toml:"workers" validate:"gte=0"`
}

type Dispatch struct {
	// ProxyURL selects the proxy backend. Empty calls the services
	// in-process.
	ProxyURL      string        `toml:"proxy_url" validate:"omitempty,url"`
	Timeout       time.Duration `toml:"timeout" validate:"gt=0"`
	MaxInFlight   int           `toml:"max_in_flight" validate:"min=1"`
	InboxCapacity int           `toml:"inbox_capacity" validate:"min=1"`
	Offline       bool          `toml:"offline"`
}

type Server struct {
	Addr           string   `toml:"addr" validate:"required"`
	AllowedOrigins []string `toml:"allowed_origins" validate:"min=1"`
}

type Cache struct {
	Backend   string        `toml:"backend" validate:"oneof=none file redis"`
	Dir       string        `toml:"dir"`
	RedisAddr string        `toml:"redis_addr" validate:"required_if=Backend redis"`
	RedisDB   int           `toml:"redis_db" validate:"gte=0"`
	TTL       time.Duration `toml:"ttl" validate:"gte=0"`
	KeyPrefix string        `toml:"key_prefix"`
}

type Store struct {
	Backend    string `toml:"backend" validate:"oneof=file mongo"`
	Dir        string `toml:"dir"`
	MongoURI   string `toml:"mongo_uri" validate:"required_if=Backend mongo"`
	Database   string `toml:"database" validate:"required_if=Backend mongo"`
	Collection string `toml:"collection" validate:"required_if=Backend mongo"`
}

type Log struct {
	File       string `toml:"file"`
	Level      string `toml:"level" validate:"oneof=debug info warn error"`
	MaxSizeMB  int    `toml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `toml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `toml:"max_age_days" validate:"gte=0"`
}

// Default returns the shipped configuration.
func Default() *Config {
	p := physics.DefaultParams()
	return &Config{
		Canvas: Canvas{
			ZoomMin:    canvas.DefaultZoomMin,
			ZoomMax:    canvas.DefaultZoomMax,
			ZoomStep:   1.1,
			NodeWidth:  canvas.DefaultNodeSize.X,
			NodeHeight: canvas.DefaultNodeSize.Y,
			LODZoom:    0.4,
		},
		Physics: Physics{
			Repulsion:  p.Repulsion,
			Attraction: p.Attraction,
			Damping:    p.Damping,
			RestLength: p.RestLength,
			DistFloor:  p.DistFloor,
			Workers:    p.Workers,
		},
		Dispatch: Dispatch{
			Timeout:       30 * time.Second,
			MaxInFlight:   8,
			InboxCapacity: 256,
		},
		Server: Server{
			Addr:           ":8033",
			AllowedOrigins: []string{"*"},
		},
		Cache: Cache{
			Backend: string(cache.BackendFile),
			TTL:     24 * time.Hour,
		},
		Store: Store{
			Backend:    string(store.BackendFile),
			Database:   "storyboard",
			Collection: "reports",
		},
		Log: Log{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/storyboard/config.toml, or the
// platform equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "storyboard", "config.toml")
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path loads DefaultPath if it exists.
// Unknown keys in the file are an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		switch {
		case err == nil:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				keys := make([]string, len(undecoded))
				for i, k := range undecoded {
					keys[i] = k.String()
				}
				return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
			}
		case os.IsNotExist(err) && !explicit:
		default:
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv applies environment overrides read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	if v, ok := get("PORT"); ok {
		c.Server.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	if v, ok := get("STORYBOARD_PROXY_URL"); ok {
		c.Dispatch.ProxyURL = v
	}
	if v, ok := get("REDIS_ADDR"); ok {
		c.Cache.RedisAddr = v
	}
	if v, ok := get("MONGO_URI"); ok {
		c.Store.MongoURI = v
	}
	c.Keys.YouComKey, _ = get("YOU_COM_API_KEY")
	c.Keys.OpenRouterKey, _ = get("OPENROUTER_API_KEY")
	c.Keys.FoxitID, _ = get("FOXIT_CLIENT_ID")
	c.Keys.FoxitSecret, _ = get("FOXIT_CLIENT_SECRET")
}

// ===========================================================================
// Conversions
// ===========================================================================

// CanvasOptions returns the options for canvas.New.
func (c *Config) CanvasOptions() canvas.Options {
	return canvas.Options{
		NodeSize: geom.V(c.Canvas.NodeWidth, c.Canvas.NodeHeight),
		ZoomMin:  c.Canvas.ZoomMin,
		ZoomMax:  c.Canvas.ZoomMax,
	}
}

// PhysicsParams returns the physics constants.
func (c *Config) PhysicsParams() physics.Params {
	return physics.Params{
		Repulsion:  c.Physics.Repulsion,
		Attraction: c.Physics.Attraction,
		Damping:    c.Physics.Damping,
		RestLength: c.Physics.RestLength,
		DistFloor:  c.Physics.DistFloor,
		Workers:    c.Physics.Workers,
	}
}

// InputOptions returns the zoom steps. Zooming out uses the step mirrored
// about one, so the default 1.1 gives ×1.1 in and ×0.9 out.
func (c *Config) InputOptions() interact.Options {
	return interact.Options{ZoomIn: c.Canvas.ZoomStep, ZoomOut: 2 - c.Canvas.ZoomStep}
}

// CacheOptions returns the options for cache.Open.
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:   cache.Backend(c.Cache.Backend),
		Dir:       c.Cache.Dir,
		RedisAddr: c.Cache.RedisAddr,
		RedisDB:   c.Cache.RedisDB,
		KeyPrefix: c.Cache.KeyPrefix,
	}
}

// StoreOptions returns the options for store.Open.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend:    store.Backend(c.Store.Backend),
		Dir:        c.Store.Dir,
		MongoURI:   c.Store.MongoURI,
		Database:   c.Store.Database,
		Collection: c.Store.Collection,
	}
}

// LogFile returns the TUI log path, defaulting to storyboard.log in the
// user cache directory.
func (c *Config) LogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	dir, err := cache.DefaultDir()
	if err != nil {
		return "storyboard.log"
	}
	return filepath.Join(dir, "storyboard.log")
}

// String renders the configuration as TOML. Keys are never included.
func (c *Config) String() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return b.String()
}
