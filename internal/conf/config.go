package conf

import "path/filepath"

type Database struct {
	Type   string `json:"type" env:"TYPE"`
	DBFile string `json:"db_file" env:"FILE"`
}

type Scheme struct {
	Address  string `json:"address" env:"ADDR"`
	HttpPort int    `json:"http_port" env:"HTTP_PORT"`
}

type LogConfig struct {
	Enable     bool   `json:"enable" env:"ENABLE"`
	Name       string `json:"name" env:"NAME"`
	MaxSize    int    `json:"max_size" env:"MAX_SIZE"`
	MaxBackups int    `json:"max_backups" env:"MAX_BACKUPS"`
	MaxAge     int    `json:"max_age" env:"MAX_AGE"`
	Compress   bool   `json:"compress" env:"COMPRESS"`
}

type Coin struct {
	// LockTTLSeconds bounds the lifetime of a slot lock; a lock whose holder
	// never releases it is reclaimed after this long.
	LockTTLSeconds int `json:"lock_ttl_seconds" env:"LOCK_TTL"`
	// TickSeconds is the countdown interval of the session registry.
	TickSeconds int `json:"tick_seconds" env:"TICK"`
	// RateCacheSeconds is how long resolved pricing tables are cached.
	RateCacheSeconds int `json:"rate_cache_seconds" env:"RATE_CACHE"`
}

type License struct {
	AuthorityURL     string `json:"authority_url" env:"AUTHORITY_URL"`
	PublicKey        string `json:"public_key" env:"PUBLIC_KEY"`
	TrialDays        int    `json:"trial_days" env:"TRIAL_DAYS"`
	TimeoutSeconds   int    `json:"timeout_seconds" env:"TIMEOUT"`
	ReconcileMinutes int    `json:"reconcile_minutes" env:"RECONCILE_MINUTES"`
}

type Mirror struct {
	Enable          bool   `json:"enable" env:"ENABLE"`
	URL             string `json:"url" env:"URL"`
	IntervalSeconds int    `json:"interval_seconds" env:"INTERVAL"`
	TimeoutSeconds  int    `json:"timeout_seconds" env:"TIMEOUT"`
}

type Config struct {
	DeviceName string    `json:"device_name" env:"DEVICE_NAME"`
	Scheme     Scheme    `json:"scheme" envPrefix:"SCHEME_"`
	Database   Database  `json:"database" envPrefix:"DB_"`
	Log        LogConfig `json:"log" envPrefix:"LOG_"`
	Coin       Coin      `json:"coin" envPrefix:"COIN_"`
	License    License   `json:"license" envPrefix:"LICENSE_"`
	Mirror     Mirror    `json:"mirror" envPrefix:"MIRROR_"`
	Cors       []string  `json:"cors" env:"CORS" envSeparator:","`
}

func DefaultConfig(dataDir string) *Config {
	return &Config{
		DeviceName: "vendo",
		Scheme: Scheme{
			Address:  "0.0.0.0",
			HttpPort: 5244,
		},
		Database: Database{
			Type:   "sqlite3",
			DBFile: filepath.Join(dataDir, "data.db"),
		},
		Log: LogConfig{
			Enable:     true,
			Name:       filepath.Join(dataDir, "log/vendo.log"),
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     28,
		},
		Coin: Coin{
			LockTTLSeconds:   30,
			TickSeconds:      1,
			RateCacheSeconds: 60,
		},
		License: License{
			TrialDays:        7,
			TimeoutSeconds:   10,
			ReconcileMinutes: 60,
		},
		Mirror: Mirror{
			IntervalSeconds: 60,
			TimeoutSeconds:  10,
		},
		Cors: []string{"*"},
	}
}

var Conf *Config
