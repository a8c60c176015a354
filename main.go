package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/KNICEX/token-watch/internal/repo"
	"github.com/KNICEX/token-watch/internal/service/evaluator"
	"github.com/KNICEX/token-watch/internal/service/history"
	"github.com/KNICEX/token-watch/internal/service/monitor"
	"github.com/KNICEX/token-watch/internal/service/notification"
	"github.com/KNICEX/token-watch/internal/service/oracle"
	binanceoracle "github.com/KNICEX/token-watch/internal/service/oracle/binance"
	"github.com/KNICEX/token-watch/internal/service/pricecache"
	"github.com/KNICEX/token-watch/ioc"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func initViper() {

	// --config=./config/xxx.yaml
	file := pflag.String("config", "./config/config.dev.yaml", "specify config file")
	pflag.Parse()

	viper.SetConfigFile(*file)
	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s \n", err))
	}
}

func main() {
	initViper()

	db := ioc.InitDB()
	if err := repo.InitTables(db); err != nil {
		panic(err)
	}

	alertRepo := repo.NewAlertRepo(db)
	triggerRepo := repo.NewTriggerLogRepo(db)
	priceRepo := repo.NewPriceHistoryRepo(db)

	var oracleSvc oracle.Service
	provider := viper.GetString("oracle.provider")
	switch provider {
	case "binance":
		oracleSvc = binanceoracle.NewService(ioc.InitBinanceCli())
	default:
		provider = "redstone"
		oracleSvc = ioc.InitRedstone()
	}

	cache := pricecache.New()
	eval := evaluator.New(history.NewRepoLookup(priceRepo))

	hub := notification.NewHub()
	channels := []notification.Channel{notification.NewConsoleChannel(), hub}
	if cli, from := ioc.InitResendCli(); cli != nil {
		channels = append(channels, notification.NewEmailChannel(cli, from))
	}
	if viper.GetBool("kafka.enabled") {
		topic := viper.GetString("kafka.topic")
		channels = append(channels, notification.NewKafkaAuditChannel(ioc.InitKafkaProducer(), topic))
	}
	dispatcher := notification.NewDispatcher(channels...)

	engine := monitor.NewEngine(alertRepo, triggerRepo, priceRepo, oracleSvc, cache, eval, dispatcher,
		monitor.WithInterval(viper.GetDuration("monitor.interval")),
		monitor.WithSource(provider),
	)

	// 实时推送入口, 其余 API 由外部服务层挂载
	if addr := viper.GetString("ws.addr"); addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/ws", hub)
			if err := http.ListenAndServe(addr, mux); err != nil {
				slog.Error("websocket server exited", "error", err)
			}
		}()
	}

	if err := engine.Start(); err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := engine.Stop(shutdownCtx); err != nil {
		slog.Error("engine shutdown", "error", err)
	}
}
