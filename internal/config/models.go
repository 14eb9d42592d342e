package config

import "time"

type TopLevel struct {
	AssetVersions App `json:"assetversions" mapstructure:"assetversions"`
}

type App struct {
	Delivery      Delivery             `json:"delivery" mapstructure:"delivery"`
	Probing       Probing              `json:"probing" mapstructure:"probing"`
	Output        Output               `json:"output" mapstructure:"output"`
	Elasticsearch *ElasticsearchClient `json:"elasticsearch,omitempty" mapstructure:"elasticsearch"`
	Sqlite        *Sqlite              `json:"sqlite,omitempty" mapstructure:"sqlite"`
	Server        *Server              `json:"server,omitempty" mapstructure:"server"`
	Watch         Watch                `json:"watch" mapstructure:"watch"`
	ApmClient     *ApmClient           `json:"apm,omitempty" mapstructure:"apm"`
	Logging       *Logging             `json:"logging,omitempty" mapstructure:"logging"`
}

type Logging struct {
	Json  *bool   `json:"json,omitempty" mapstructure:"json"`
	File  *string `json:"file,omitempty" mapstructure:"file"`
	Level *string `json:"level,omitempty" mapstructure:"level"`
}

// Delivery configures the HTTP client used for metadata lookups and location probes
type Delivery struct {
	BaseURL        string        `json:"base_url" mapstructure:"base_url" validate:"required,url"`
	RequestTimeout time.Duration `json:"request_timeout" mapstructure:"request_timeout" validate:"gt=0"`
	UserAgent      *string       `json:"user_agent,omitempty" mapstructure:"user_agent"`
}

type Probing struct {
	Interval         time.Duration `json:"interval" mapstructure:"interval" validate:"gt=0"`
	MaxInFlight      uint          `json:"max_in_flight" mapstructure:"max_in_flight"`
	MaxFailures      uint          `json:"max_failures" mapstructure:"max_failures"`
	StrictExhaustion bool          `json:"strict_exhaustion" mapstructure:"strict_exhaustion"`
}

type Output struct {
	JsonPath string `json:"json_path" mapstructure:"json_path" validate:"required"`
	TextPath string `json:"text_path" mapstructure:"text_path" validate:"required,nefield=JsonPath"`
}

type ElasticsearchClient struct {
	Addresses []string       `json:"addresses" mapstructure:"addresses" validate:"required,min=1,dive,url"`
	User      *BasicAuthUser `json:"user,omitempty" mapstructure:"user"`
	Index     string         `json:"index" mapstructure:"index" validate:"required"`
}

type Sqlite struct {
	Path string `json:"path" mapstructure:"path" validate:"required"`
}

// Server configures the optional status API
type Server struct {
	BindAddress     string        `json:"bind_address" mapstructure:"bind_address" validate:"required"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type Watch struct {
	Schedule string `json:"schedule" mapstructure:"schedule" validate:"cronSchedule"`
}

type ApmClient struct {
	Address     *string `json:"address,omitempty" mapstructure:"address"`
	SecretToken *string `json:"secret_token,omitempty" mapstructure:"secret_token"`
}

type BasicAuthUser struct {
	Name     string `json:"name" mapstructure:"name"`
	Password string `json:"password" mapstructure:"password"`
}
