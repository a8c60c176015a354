package ioc

import (
	"time"

	"github.com/KNICEX/token-watch/internal/service/oracle"
	"github.com/KNICEX/token-watch/internal/service/oracle/redstone"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

func InitRedstone() oracle.Service {
	type Config struct {
		BaseURL        string  `mapstructure:"base_url"`
		TimeoutSeconds int     `mapstructure:"timeout_seconds"`
		Rps            float64 `mapstructure:"rps"`
		Burst          int     `mapstructure:"burst"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("oracle.redstone", &cfg); err != nil {
		panic(err)
	}

	var opts []redstone.Option
	if cfg.BaseURL != "" {
		opts = append(opts, redstone.WithBaseURL(cfg.BaseURL))
	}
	if cfg.TimeoutSeconds > 0 {
		opts = append(opts, redstone.WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second))
	}
	if cfg.Rps > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = int(cfg.Rps) + 1
		}
		opts = append(opts, redstone.WithLimiter(rate.NewLimiter(rate.Limit(cfg.Rps), burst)))
	}
	return redstone.NewService(opts...)
}
