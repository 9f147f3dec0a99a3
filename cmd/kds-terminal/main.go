package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kitchen-display/internal/api"
	"kitchen-display/internal/config"
	"kitchen-display/internal/kitchen"
	"kitchen-display/internal/logger"
	"kitchen-display/internal/server"
	"kitchen-display/internal/stationcfg"
	"kitchen-display/internal/transport"
)

type pushTransport interface {
	kitchen.PushTransport
	Run(ctx context.Context) error
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the yaml config file")
	terminalName := flag.String("terminal", "", "unique terminal name (overrides terminal.name)")
	listenAddr := flag.String("listen", "", "view API listen address (overrides terminal.listen_addr)")
	pollSeconds := flag.Int("poll-interval", 0, "poll fallback interval in seconds (overrides config)")
	flag.Parse()

	// Secrets may live in a .env next to the binary; absence is fine.
	_ = godotenv.Load()

	lg := logger.New("kds-terminal")

	cfg, err := config.Load(*configPath)
	if err != nil {
		lg.Error("config_load_failed", err, map[string]any{"path": *configPath})
		os.Exit(1)
	}
	if *terminalName != "" {
		cfg.Terminal.Name = *terminalName
	}
	if *listenAddr != "" {
		cfg.Terminal.ListenAddr = *listenAddr
	}
	if *pollSeconds > 0 {
		cfg.Terminal.PollIntervalSeconds = *pollSeconds
	}
	if cfg.Terminal.Name == "" {
		fmt.Fprintln(os.Stderr, "--terminal is required (or set terminal.name in config)")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, lg); err != nil && ctx.Err() == nil {
		lg.Error("fatal", err, nil)
		os.Exit(1)
	}
	lg.Info("terminal_stopped", map[string]any{"terminal": cfg.Terminal.Name})
}

func run(ctx context.Context, cfg *config.Config, lg *logger.Logger) error {
	pool, err := stationcfg.Connect(ctx, cfg.Database.Host, cfg.Database.Port,
		cfg.Database.User, cfg.Database.Password, cfg.Database.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	stations := stationcfg.New(pool, cfg.Terminal.Name)
	if err := stations.EnsureSchema(ctx); err != nil {
		return err
	}

	backend := api.NewClient(cfg.Backend.BaseURL, cfg.Backend.Token)
	store := kitchen.NewStore()
	notices := kitchen.NewNoticeBoard(kitchen.DefaultNoticeCapacity)
	syncer := kitchen.NewSyncer(backend, store, lg)

	var push pushTransport
	switch cfg.Backend.Push {
	case config.PushWebSocket:
		push = transport.NewWebSocket(transport.WebSocketConfig{
			URL:   cfg.Backend.WebSocketURL,
			Token: cfg.Backend.Token,
		}, lg)
	default:
		push = transport.NewAMQP(transport.AMQPConfig{
			Host:     cfg.RabbitMQ.Host,
			Port:     cfg.RabbitMQ.Port,
			User:     cfg.RabbitMQ.User,
			Password: cfg.RabbitMQ.Password,
			VHost:    cfg.RabbitMQ.VHost,
			UseTLS:   cfg.RabbitMQ.UseTLS,
			Exchange: cfg.RabbitMQ.Exchange,
			Terminal: cfg.Terminal.Name,
		}, lg)
	}

	consumer := kitchen.NewConsumer(push, store, syncer, notices, lg)
	bulk := kitchen.NewBulkTransitioner(store, backend, syncer, notices, lg)
	poller := kitchen.NewPoller(time.Duration(cfg.Terminal.PollIntervalSeconds)*time.Second,
		syncer, consumer.Connectivity, lg)

	srv := server.New(store, bulk, notices, consumer.Connectivity, stations, lg)
	if err := srv.LoadSelection(ctx); err != nil {
		return fmt.Errorf("load station selection: %w", err)
	}

	// Seed the store before serving. A failed seed is not fatal: the poll
	// fallback recovers it once the backend is reachable.
	if err := syncer.ResyncNow(ctx); err != nil {
		lg.Error("initial_snapshot_failed", err, nil)
	} else {
		lg.Info("initial_snapshot_loaded", map[string]any{"orders": store.Len()})
	}

	lg.Info("terminal_started", map[string]any{
		"terminal": cfg.Terminal.Name,
		"listen":   cfg.Terminal.ListenAddr,
		"push":     cfg.Backend.Push,
	})

	errCh := make(chan error, 5)
	go func() { errCh <- push.Run(ctx) }()
	go func() { errCh <- consumer.Run(ctx) }()
	go func() { errCh <- syncer.Run(ctx) }()
	go func() { errCh <- poller.Run(ctx) }()
	go func() { errCh <- srv.Run(ctx, cfg.Terminal.ListenAddr, srv.Router(cfg.Terminal.AllowedOrigins)) }()

	err = <-errCh
	bulk.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}
