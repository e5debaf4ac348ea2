package config

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Load reads the configuration for the named service from the environment.
// Keys map to upper-case variables with dots replaced by underscores, so
// rabbitmq.host is read from RABBITMQ_HOST.
func Load(serviceName string, port int) (*Config, error) {
	v := viper.New()
	setDefaults(v, serviceName, port)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// a few options keep the short names used by the deployment files.
	if err := v.BindEnv("store.data_dir", "DATA_DIR", "STORE_DATA_DIR"); err != nil {
		return nil, errors.Wrap(err, "failed to bind DATA_DIR")
	}
	if err := v.BindEnv("store.database_url", "DATABASE_URL", "STORE_DATABASE_URL"); err != nil {
		return nil, errors.Wrap(err, "failed to bind DATABASE_URL")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, serviceName string, port int) {
	v.SetDefault("service.name", serviceName)
	v.SetDefault("service.host", "localhost")
	v.SetDefault("service.port", port)

	v.SetDefault("rabbitmq.user", "admin")
	v.SetDefault("rabbitmq.pass", "admin123")
	v.SetDefault("rabbitmq.host", "rabbitmq")
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.queue", "playlist_generation_queue")
	v.SetDefault("rabbitmq.reconnect_delay", 5*time.Second)

	v.SetDefault("consul.host", "consul")
	v.SetDefault("consul.port", 8500)
	v.SetDefault("discovery.ttl", 30*time.Second)
	v.SetDefault("discovery.timeout", 2*time.Second)

	v.SetDefault("generation.url", "https://lagmaster-pro.fly.dev/generate_playlist")
	v.SetDefault("generation.max_retries", 3)
	v.SetDefault("generation.retry_delay", 10*time.Second)
	v.SetDefault("generation.timeout", 90*time.Second)

	v.SetDefault("store.driver", DriverFile)
	v.SetDefault("store.data_dir", "./data")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.timeout", 10*time.Second)

	v.SetDefault("statsd.host", "")
	v.SetDefault("statsd.port", "8125")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("fallback.clients_url", "http://service-clients:3001")
	v.SetDefault("fallback.playlists_url", "http://service-playlists:3002")
	v.SetDefault("fallback.soirees_url", "http://service-soirees:3003")

	v.SetDefault("default_style", "disco")
}
