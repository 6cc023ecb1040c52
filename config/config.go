package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/HavvokLab/autarco/setting"
	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	DefaultPath = "config.yaml"
	EnvPrefix   = "AUTARCO"
	// EnvPath overrides the config file location used by GetConfig.
	EnvPath = "AUTARCO_CONFIG"
)

var (
	once   sync.Once
	config Config
)

// GetConfig loads the process config once and panics when it cannot.
func GetConfig() Config {
	once.Do(func() {
		path := os.Getenv(EnvPath)
		if path == "" {
			path = DefaultPath
		}

		cfg, err := Load(path)
		if err != nil {
			log.Panic().Err(err).Str("path", path).Msg("failed to load config")
		}
		config = *cfg
	})

	return config
}

// Load reads a YAML file and applies AUTARCO_* environment overrides, e.g.
// AUTARCO_AUTARCO_PASSWORD or AUTARCO_ELASTICSEARCH_HOST.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("autarco.username", "")
	v.SetDefault("autarco.password", "")
	v.SetDefault("autarco.base_url", setting.AutarcoBaseURL)
	v.SetDefault("autarco.request_timeout", setting.AutarcoRequestTimeout)
	v.SetDefault("elasticsearch.host", "http://localhost:9200")
	v.SetDefault("elasticsearch.username", "")
	v.SetDefault("elasticsearch.password", "")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("crontab.collect_time", setting.CrontabCollectTime)
	v.SetDefault("crontab.alarm_time", setting.CrontabAlarmTime)
	v.SetDefault("database.path", setting.DatabasePath)
	v.SetDefault("collector.workers", setting.CollectorWorkers)
}
