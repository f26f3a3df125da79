package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/CarVault/CarVault/internal/car"
	"github.com/CarVault/CarVault/internal/common/auth"
	"github.com/CarVault/CarVault/internal/common/config"
	"github.com/CarVault/CarVault/internal/common/db"
	"github.com/CarVault/CarVault/internal/common/discovery"
	"github.com/CarVault/CarVault/internal/common/logger"
	"github.com/CarVault/CarVault/internal/common/tracing"
	"github.com/CarVault/CarVault/internal/events"
	"github.com/CarVault/CarVault/internal/httpserver"
	"github.com/hashicorp/consul/api"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Log.Impl, cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.Path)
	if err != nil {
		os.Stderr.WriteString("failed to init logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Centralized config wins over the local file when a KV key is set.
	if key := cfg.Consul.ConfigKey; key != "" {
		kvCfg, kvErr := config.LoadConfigFromConsulKV(cfg.Consul.Host, cfg.Consul.Port, key)
		if kvErr != nil {
			log.Warnf("Consul KV config unavailable, using local config: %v", kvErr)
		} else {
			cfg = kvCfg
			log.Infof("Loaded config from consul kv key=%s", key)
		}
	}

	_, closer, err := tracing.InitTracer(cfg.Server.Name, cfg.Jaeger.Endpoint, cfg.Jaeger.Sampler)
	if err != nil {
		log.Warnf("Tracing disabled: %v", err)
	} else {
		defer closer.Close()
	}

	gdb, err := db.NewMySQL(
		cfg.Database.Host, cfg.Database.Port,
		cfg.Database.User, cfg.Database.Password, cfg.Database.Database,
		cfg.Database.MaxIdle, cfg.Database.MaxOpen,
	)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := gdb.AutoMigrate(&car.Car{}); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	var consulClient *api.Client
	consulClient, err = discovery.NewConsulClient(cfg.Consul.Host, cfg.Consul.Port)
	if err != nil {
		log.Warnf("Consul unavailable, continuing without discovery: %v", err)
		consulClient = nil
	}

	bus := events.NewBus(log)
	defer bus.Close()
	bus.Subscribe(func(ctx context.Context, env events.Envelope) {
		if created, ok := env.Event.(car.CarCreated); ok {
			log.Infof("Car created successfully: id=%d, vin=%s", created.ID, created.VIN)
		}
	})

	repo := car.NewRepo(gdb)
	cars := car.NewService(repo, bus)

	tokens, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		log.Fatalf("failed to init token service: %v", err)
	}
	credentials, err := auth.NewCredentialStore(cfg.Auth.Username, cfg.Auth.Password, []string{"USER"})
	if err != nil {
		log.Fatalf("failed to init credential store: %v", err)
	}

	srv := httpserver.New(httpserver.Deps{
		Config:      cfg,
		Log:         log,
		Cars:        cars,
		Tokens:      tokens,
		Credentials: credentials,
		Consul:      consulClient,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server exited: %v", err)
	}
	log.Info("Server stopped")
}
