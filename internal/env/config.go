package env

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	// Trace logs every decoded frame
	Trace bool `env:"NATSCOPE_TRACE"`

	DebugHTTP bool `env:"NATSCOPE_DEBUG_HTTP"`

	// MaxIdle bounds how long an abandoned connection keeps its decode
	// state before it is reclaimed
	MaxIdle time.Duration `env:"NATSCOPE_MAX_IDLE,default=5m"`

	// RecentFrames sizes the in-memory ring of decoded frames
	RecentFrames int `env:"NATSCOPE_RECENT_FRAMES,default=1024"`
}

func LoadConfig(ctx context.Context) (*Config, error) {
	config := Config{}

	if err := godotenv.Load(".env.local"); err != nil {
		if !os.IsNotExist(err) {
			panic(err)
		}
	}

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
