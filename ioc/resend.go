package ioc

import (
	"github.com/resend/resend-go/v2"
	"github.com/spf13/viper"
)

// InitResendCli 返回邮件客户端和发件人地址, api key 为空时返回 nil 表示邮件渠道关闭
func InitResendCli() (*resend.Client, string) {
	type Config struct {
		ApiKey string `mapstructure:"api_key"`
		From   string `mapstructure:"from"`
	}

	cfg := Config{From: "alerts@tokenwatch.dev"}
	if err := viper.UnmarshalKey("email.resend", &cfg); err != nil {
		panic(err)
	}

	if cfg.ApiKey == "" {
		return nil, cfg.From
	}
	return resend.NewClient(cfg.ApiKey), cfg.From
}
