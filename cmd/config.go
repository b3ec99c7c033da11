package main

import "time"

type Config struct {
	LogLevel string `env:"LOG_LEVEL,default=INFO"`
	Host     string `env:"HOST,default=localhost"`
	Port     int    `env:"PORT,default=8080"`

	// badger (default) or mysql
	StoreBackend   string `env:"STORE_BACKEND,default=badger"`
	BadgerFilepath string `env:"BADGER_FILEPATH,default=./data/messages"`
	MySQLDSN       string `env:"MYSQL_DSN"`

	JWTSecret      string `env:"JWT_SECRET,required=true"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS,default=http://localhost:5173"`

	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	BroadcastBufferSize  int           `env:"BROADCAST_BUFFER_SIZE,default=256"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=2s"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	MaxContentLength     int           `env:"MAX_CONTENT_LENGTH,default=2000"`
}
