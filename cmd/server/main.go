package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/VideoRoom/internal/adapters/http"
	"github.com/dkeye/VideoRoom/internal/adapters/rtc"
	wssignal "github.com/dkeye/VideoRoom/internal/adapters/signal"
	"github.com/dkeye/VideoRoom/internal/adapters/storage"
	"github.com/dkeye/VideoRoom/internal/app"
	"github.com/dkeye/VideoRoom/internal/app/orch"
	"github.com/dkeye/VideoRoom/internal/app/recording"
	"github.com/dkeye/VideoRoom/internal/app/relay"
	"github.com/dkeye/VideoRoom/internal/config"
	"github.com/dkeye/VideoRoom/internal/domain"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		os.Exit(1)
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Err(err).Str("log_level", cfg.LogLevel).Msg("unknown log level, keeping info")
	}

	store, err := storage.New(afero.NewOsFs(), storage.Options{
		BasePath:          cfg.Storage.BasePath,
		MaxFileSize:       cfg.Storage.MaxFileSize,
		AllowedExtensions: cfg.Storage.AllowedExtensions,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to init storage")
		os.Exit(1)
	}

	policy, err := app.PolicyFromString(cfg.Signaling.Backpressure)
	if err != nil {
		log.Error().Err(err).Msg("bad back-pressure policy")
		os.Exit(1)
	}

	reg := app.NewRegistry()
	rooms := app.NewRoomManager(reg, app.RoomOptions{
		DefaultMaxUsers: cfg.Rooms.MaxUsers,
		MaxCapacity:     cfg.Rooms.MaxCapacity,
	})
	engine := rtc.NewEngine(rtc.ConfigFromURLs(cfg.WebRTC.ICEServers))
	relays := relay.New(reg, engine)
	recorder := recording.New(rooms, store, nil)

	o := &orch.Orchestrator{
		Registry:    reg,
		Rooms:       rooms,
		Relay:       relays,
		Recorder:    recorder,
		Policy:      policy,
		DefaultRoom: domain.RoomID(cfg.Rooms.DefaultRoom),
		TrackLinks:  cfg.Signaling.TrackLinks,
	}

	ws := wssignal.NewSignalWSController(o, wssignal.Options{
		ReadLimit:        cfg.WS.ReadLimit,
		PingPeriod:       cfg.WS.PingPeriod,
		PongWait:         cfg.WS.PongWait,
		WriteWait:        cfg.WS.WriteWait,
		SendBuffer:       cfg.WS.SendBuffer,
		JoinRateLimit:    cfg.Signaling.JoinRateLimit,
		JoinRateInterval: cfg.Signaling.JoinRateInterval,
	})

	r := router.SetupRouter(ctx, cfg, o, store, ws, engine.ICEServers())
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("VideoRoom server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cfg.Recording.RetentionDays > 0 {
		g.Go(func() error {
			return recorder.RunJanitor(gctx, cfg.Recording.PurgeInterval, cfg.Recording.RetentionDays)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := o.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("session teardown incomplete")
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
	log.Info().Msg("Server exited gracefully")
}
