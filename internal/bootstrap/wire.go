package bootstrap

import (
	"log/slog"

	"dialdesk/internal/callstate"
	"dialdesk/internal/config"
	"dialdesk/internal/history"
	"dialdesk/internal/logging"
	"dialdesk/internal/player"
	"dialdesk/internal/ports"
	"dialdesk/internal/rest"
	"dialdesk/internal/stream"
	"dialdesk/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.CallController
	Store      *callstate.Store
	Cache      *history.Cache
	Config     config.Config
	Logger     *slog.Logger
}

// Build wires all backend dependencies for the current runtime.
func Build(eventSink ports.EventSink, clipboard ports.Clipboard) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}
	log := logging.New(cfg.Env)

	cache, err := history.Open(cfg.History.CachePath)
	if err != nil {
		// the cache is advisory; a broken local file must not block startup
		log.Warn("history cache unavailable", slog.String("error", err.Error()))
		cache = nil
	}

	store := callstate.NewStore()
	controller := usecase.NewCallController(
		rest.NewClient(cfg.API.BaseURL, cfg.API.Timeout, log),
		stream.NewDialer(stream.Config{
			BaseURL:          cfg.Stream.BaseURL,
			ReconnectDelay:   cfg.Stream.ReconnectDelay,
			HandshakeTimeout: cfg.Stream.HandshakeTimeout,
		}, log),
		store,
		cache,
		player.NewFFPlay(cfg.Player.Command),
		clipboard,
		eventSink,
		log,
		usecase.Config{
			DefaultPageSize: cfg.History.PageSize,
			DefaultPersona:  cfg.API.DefaultPersona,
			WarmLimit:       cfg.History.WarmLimit,
		},
	)

	return Services{
		Controller: controller,
		Store:      store,
		Cache:      cache,
		Config:     cfg,
		Logger:     log,
	}, nil
}
