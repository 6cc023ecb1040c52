package config

import "time"

type Config struct {
	Autarco   AutarcoConfig       `mapstructure:"autarco"`
	Elastic   ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis     RedisConfig         `mapstructure:"redis"`
	SnmpList  []SnmpConfig        `mapstructure:"snmp_list"`
	Crontab   CrontabConfig       `mapstructure:"crontab"`
	Database  DatabaseConfig      `mapstructure:"database"`
	Collector CollectorConfig     `mapstructure:"collector"`
}

type AutarcoConfig struct {
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type ElasticsearchConfig struct {
	Host     string `mapstructure:"host"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SnmpConfig struct {
	AgentHost  string `mapstructure:"agent_host"`
	TargetHost string `mapstructure:"target_host"`
	TargetPort int    `mapstructure:"target_port"`
}

type CrontabConfig struct {
	CollectTime string `mapstructure:"collect_time"`
	AlarmTime   string `mapstructure:"alarm_time"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type CollectorConfig struct {
	Workers int `mapstructure:"workers"`
}
