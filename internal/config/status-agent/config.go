package status_agent_config

import (
	"time"

	"github.com/NordCoder/latency-agent/internal/obs"
	"github.com/NordCoder/latency-agent/internal/remote"
	pg "github.com/NordCoder/latency-agent/internal/repository/postgres"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	AdminTokenHash  string        `mapstructure:"admin_token_hash"`
}

type CacheCfg struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type SyncCfg struct {
	Interval    time.Duration `mapstructure:"interval"`
	RunOnStart  bool          `mapstructure:"run_on_start"`
	StopTimeout time.Duration `mapstructure:"stop_timeout"`
}

const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

type StoreCfg struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type KafkaCfg struct {
	Enable  bool     `mapstructure:"enable"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Install seeds a fresh settings store and describes the monitored site.
type Install struct {
	APIKey   string `mapstructure:"api_key"`
	SiteName string `mapstructure:"site_name"`
	SiteURL  string `mapstructure:"site_url"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc *OTEL) AsOTELConfig(app App) *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
		Version:     app.Version,
		Env:         app.Env,
	}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (lc *Log) AsLoggerConfig(app App) obs.LogConfig {
	return obs.LogConfig{
		Level:  lc.Level,
		Pretty: lc.Pretty,
		App:    "latency-agent/" + app.Name,
		Env:    app.Env,
		Ver:    app.Version,
	}
}

type Config struct {
	App     App           `mapstructure:"app"`
	Server  Server        `mapstructure:"server"`
	Remote  remote.Config `mapstructure:"remote"`
	Cache   CacheCfg      `mapstructure:"cache"`
	Sync    SyncCfg       `mapstructure:"sync"`
	Store   StoreCfg      `mapstructure:"store"`
	DB      pg.Config     `mapstructure:"db"`
	Kafka   KafkaCfg      `mapstructure:"kafka"`
	Install Install       `mapstructure:"install"`
	OTEL    OTEL          `mapstructure:"otel"`
	Log     Log           `mapstructure:"log"`
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
