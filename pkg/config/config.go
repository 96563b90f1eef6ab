package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServiceName  string      `mapstructure:"service-name"`
	Server       Server      `mapstructure:"server"`
	Postgres     Postgres    `mapstructure:"postgres"`
	Broker       Broker      `mapstructure:"broker"`
	Relay        RelayConfig `mapstructure:"relay"`
	Monitor      Monitor     `mapstructure:"monitor"`
	Sentry       Sentry      `mapstructure:"sentry"`
	LoggingLevel string      `mapstructure:"logging-level"`
}

type Server struct {
	Port          string `mapstructure:"port"`
	SwaggerUrl    string `mapstructure:"swagger_json"`
	SwaggerHost   string `mapstructure:"swagger_host"`
	SwaggerSchema string `mapstructure:"swagger_schema"`
	BodyLimit     int    `mapstructure:"body_limit"`
}

type Postgres struct {
	ConnString      string        `mapstructure:"conn_string"`
	MaxConnections  int32         `mapstructure:"max_connections"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
	ConnectAttempts int           `mapstructure:"connectAttempts"`
	ConnectDelay    time.Duration `mapstructure:"connectDelay"`
}

type Broker struct {
	Kafka Kafka `mapstructure:"kafka"`
}

type Kafka struct {
	Brokers       string `mapstructure:"brokers"`
	ConsumerGroup string `mapstructure:"consumerGroup"`
	ReaderUsr     string `mapstructure:"readerUsr"`
	ReaderUsrPwd  string `mapstructure:"readerUsrPwd"`
	WriterUsr     string `mapstructure:"writerUsr"`
	WriterUsrPwd  string `mapstructure:"writerUsrPwd"`
}

type RelayConfig struct {
	BatchSize       int           `mapstructure:"batchSize"`
	PollPeriod      time.Duration `mapstructure:"pollPeriod"`
	PublishAttempts int           `mapstructure:"publishAttempts"`
	PublishBackoff  time.Duration `mapstructure:"publishBackoff"`
	MaxRetryCount   int           `mapstructure:"maxRetryCount"`
}

type Monitor struct {
	// Schedule is either cron format ("0 * * * * *") or an interval ("@every 1m").
	Schedule       string `mapstructure:"schedule"`
	AlertThreshold int    `mapstructure:"alertThreshold"`
}

type Sentry struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
	Release     string `mapstructure:"release"`
}

func NewConfig() (Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	var conf Config
	err := viper.ReadInConfig()
	// A missing .env is fine - environment variables are enough.
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return conf, err
		}
	}

	if err = viper.Unmarshal(&conf); err != nil {
		return conf, err
	}

	conf.applyDefaults()

	return conf, nil
}

func (c *Config) applyDefaults() {
	if c.Relay.BatchSize <= 0 {
		c.Relay.BatchSize = 50
	}
	if c.Relay.PollPeriod <= 0 {
		c.Relay.PollPeriod = 5 * time.Second
	}
	if c.Relay.PublishAttempts <= 0 {
		c.Relay.PublishAttempts = 3
	}
	if c.Relay.PublishBackoff <= 0 {
		c.Relay.PublishBackoff = 2 * time.Second
	}
	if c.Relay.MaxRetryCount <= 0 {
		c.Relay.MaxRetryCount = 10
	}
	if c.Monitor.AlertThreshold <= 0 {
		c.Monitor.AlertThreshold = 5
	}
	if c.Postgres.ConnectAttempts <= 0 {
		c.Postgres.ConnectAttempts = 5
	}
	if c.Postgres.ConnectDelay <= 0 {
		c.Postgres.ConnectDelay = 3 * time.Second
	}
}
