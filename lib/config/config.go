// Package config loads service configuration from the environment. Every
// option has a default so a service starts with no environment at all.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

// Logical service names used for registration and discovery.
const (
	ServiceClients   = "service-clients"
	ServicePlaylists = "service-playlists"
	ServiceSoirees   = "service-soirees"
	ServiceWorker    = "service-playlist-worker"
)

// Store drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Service      ServiceConfig    `mapstructure:"service" validate:"required"`
	RabbitMQ     RabbitMQConfig   `mapstructure:"rabbitmq" validate:"required"`
	Consul       ConsulConfig     `mapstructure:"consul" validate:"required"`
	Discovery    DiscoveryConfig  `mapstructure:"discovery" validate:"required"`
	Generation   GenerationConfig `mapstructure:"generation" validate:"required"`
	Store        StoreConfig      `mapstructure:"store" validate:"required"`
	Statsd       StatsdConfig     `mapstructure:"statsd"`
	Log          LogConfig        `mapstructure:"log" validate:"required"`
	Fallback     FallbackConfig   `mapstructure:"fallback" validate:"required"`
	DefaultStyle string           `mapstructure:"default_style" validate:"required"`
}

// ServiceConfig is what a process advertises to the discovery backend. Port
// is zero for processes that do not serve HTTP.
type ServiceConfig struct {
	Name string `mapstructure:"name" validate:"required"`
	Host string `mapstructure:"host" validate:"required"`
	Port int    `mapstructure:"port" validate:"gte=0,lt=65536"`
}

type RabbitMQConfig struct {
	User           string        `mapstructure:"user" validate:"required"`
	Pass           string        `mapstructure:"pass"`
	Host           string        `mapstructure:"host" validate:"required"`
	Port           int           `mapstructure:"port" validate:"gt=0,lt=65536"`
	Queue          string        `mapstructure:"queue" validate:"required"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay" validate:"gt=0"`
}

type ConsulConfig struct {
	Host string `mapstructure:"host" validate:"required"`
	Port int    `mapstructure:"port" validate:"gt=0,lt=65536"`
}

type DiscoveryConfig struct {
	TTL     time.Duration `mapstructure:"ttl" validate:"gt=0"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type GenerationConfig struct {
	URL        string        `mapstructure:"url" validate:"required,url"`
	MaxRetries int           `mapstructure:"max_retries" validate:"gte=1"`
	RetryDelay time.Duration `mapstructure:"retry_delay" validate:"gte=0"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// StoreConfig selects where records live. Timeout bounds one call to a
// sibling record service.
type StoreConfig struct {
	Driver      string        `mapstructure:"driver" validate:"oneof=file postgres sqlite"`
	DataDir     string        `mapstructure:"data_dir" validate:"required"`
	DatabaseURL string        `mapstructure:"database_url" validate:"required_if=Driver postgres"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type StatsdConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// FallbackConfig holds the static addresses used when discovery is unavailable.
type FallbackConfig struct {
	ClientsURL   string `mapstructure:"clients_url" validate:"required,url"`
	PlaylistsURL string `mapstructure:"playlists_url" validate:"required,url"`
	SoireesURL   string `mapstructure:"soirees_url" validate:"required,url"`
}

// BrokerURL renders the AMQP connection string.
func (c RabbitMQConfig) BrokerURL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.User, c.Pass),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/",
	}
	return u.String()
}

// Redacted is BrokerURL without the password, for logs.
func (c RabbitMQConfig) Redacted() string {
	return fmt.Sprintf("amqp://%s:***@%s/", c.User, net.JoinHostPort(c.Host, strconv.Itoa(c.Port)))
}

func (c ConsulConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Table maps logical service names to their fallback base address.
func (c FallbackConfig) Table() map[string]string {
	return map[string]string{
		ServiceClients:   c.ClientsURL,
		ServicePlaylists: c.PlaylistsURL,
		ServiceSoirees:   c.SoireesURL,
	}
}
