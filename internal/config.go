package internal

import (
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	GatewayURL        string        `env:"GATEWAY_URL,required=true" validate:"required,url"`
	GatewayToken      string        `env:"GATEWAY_TOKEN,required=true" validate:"required"`
	AdminID           string        `env:"ADMIN_ID,required=true" validate:"required"`
	CommandPrefix     string        `env:"COMMAND_PREFIX,required=true" validate:"required"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true" validate:"required"`
	CorpusFilepath    string        `env:"CORPUS_FILEPATH,required=true" validate:"required"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	BufferSize        int           `env:"BUFFER_SIZE,default=64" validate:"gt=0"`
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL,default=30s" validate:"gt=0"`
}

func (c Config) Validate() error {
	return validator.New().Struct(c)
}
