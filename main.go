package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"paybridge/config"
	"paybridge/internal"
	"paybridge/services"
	"syscall"
	"time"
)

const shutdownTimeout = 15 * time.Second

func main() {

	logger := internal.NewLogger("internal", false, nil)
	defer logger.Sync()

	configPath := flag.String("conf", "config.yml", "path to config file")
	encrypt := flag.String("encrypt", "", "print the stored form of a secret and exit")
	flag.Parse()

	conf, err := loadConfig(*configPath, logger)
	if err != nil {
		logger.Error("boot", err)
		return
	}

	if *encrypt != "" {
		secret, err := internal.NewEncryptor(conf.Secrets.Key, conf.Secrets.IV).Encrypt(*encrypt)
		if err != nil {
			logger.Error("encrypt", err)
			return
		}
		fmt.Println(secret)
		return
	}

	var mongo services.Database
	if conf.Mongo.Enabled {
		mongo, err = internal.NewMongoClient(conf)
		if err != nil {
			logger.Error("mongo client", err)
			return
		}
		logger.Info("mongo client initialized")
	}

	pricing, err := internal.NewPricing(conf)
	if err != nil {
		logger.Error("pricing", err)
		return
	}

	gateway := internal.NewGateway(conf)
	gateway.SetLogger(internal.NewLogger("gateway", conf.IsDebug, mongo))
	gateway.SetDatabase(mongo)

	payments := internal.NewPayments(conf)
	payments.SetLogger(internal.NewLogger("payments", conf.IsDebug, mongo))
	payments.SetDatabase(mongo)
	payments.SetPricing(pricing)
	payments.SetGateway(gateway)

	server := internal.NewServer(conf)
	server.SetLogger(internal.NewLogger("server", conf.IsDebug, mongo))
	server.SetPaymentsService(payments)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-stop
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown", err)
		}
	}()

	err = server.Start()
	if err != nil {
		logger.Error("server start", err)
		return
	}
	<-stopped
	logger.Info("server stopped")
}

func loadConfig(path string, logger *internal.Logger) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		logger.Info("config file not found, reading environment")
		return config.FromEnv()
	}
	logger.Info("using config file: " + path)
	return config.GetConfig(path)
}
