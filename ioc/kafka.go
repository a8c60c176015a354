package ioc

import (
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/spf13/viper"
)

func InitKafkaProducer() *kafka.Producer {
	type Config struct {
		BootstrapServers string `mapstructure:"bootstrap_servers"`
		ClientId         string `mapstructure:"client_id"`
	}

	cfg := Config{
		BootstrapServers: "localhost:9092",
		ClientId:         "token-watch",
	}
	if err := viper.UnmarshalKey("kafka", &cfg); err != nil {
		panic(err)
	}

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.BootstrapServers,
		"client.id":         cfg.ClientId,
	})
	if err != nil {
		panic(err)
	}
	return producer
}
