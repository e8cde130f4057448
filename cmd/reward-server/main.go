package main

import (
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/danielpatrickdp/track-reward/internal/config"
	"github.com/danielpatrickdp/track-reward/internal/episode"
	"github.com/danielpatrickdp/track-reward/internal/eval"
	"github.com/danielpatrickdp/track-reward/internal/httpapi"
	"github.com/danielpatrickdp/track-reward/internal/logging"
	"github.com/danielpatrickdp/track-reward/internal/server"
)

// #region main
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}

	log, err := logging.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.Fatalf("logger: %v", err)
	}

	// Initialize episode store
	store, err := episode.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	evalCfg := eval.DefaultEvalConfig()
	evalCfg.MaxAbsReward = cfg.MaxAbsReward
	srv := server.New(store, eval.NewEvalHarness(evalCfg), log, server.Options{
		DefaultStrategy:    cfg.Strategy,
		RecordObservations: cfg.RecordObservations,
	})

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen %s: %v", cfg.GRPCAddr, err)
	}
	gs := server.NewGRPCServer(srv, log)
	go func() {
		if err := gs.Serve(lis); err != nil {
			log.Fatalf("grpc serve: %v", err)
		}
	}()

	var httpSrv *http.Server
	if cfg.HTTPAddr != "" {
		httpSrv = &http.Server{Addr: cfg.HTTPAddr, Handler: httpapi.NewAPI(srv, log).Handler()}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("http serve: %v", err)
			}
		}()
	}

	log.WithFields(logrus.Fields{
		"db":       cfg.DBPath,
		"grpc":     cfg.GRPCAddr,
		"http":     cfg.HTTPAddr,
		"strategy": cfg.Strategy,
	}).Info("reward server ready")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	if httpSrv != nil {
		httpSrv.Close()
	}
	gs.GracefulStop()
}

// #endregion main
