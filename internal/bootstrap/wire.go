package bootstrap

import (
	"net/http"

	"go.uber.org/zap"

	"voiceptt/internal/audio"
	"voiceptt/internal/config"
	"voiceptt/internal/logsink"
	"voiceptt/internal/media"
	"voiceptt/internal/ports"
	"voiceptt/internal/providers/voiceapi"
	"voiceptt/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Capture  *usecase.CaptureSession
	Pipeline *usecase.Pipeline
	Player   *audio.FFPlayPlayer
	API      *voiceapi.Client
	Config   config.Config
	Logger   *zap.Logger
}

// Override adjusts the loaded configuration before wiring, e.g. from CLI flags.
type Override func(*config.Config)

// Build wires all backend dependencies for the current runtime. Every line
// appended to the activity log is mirrored into the diagnostics logger before
// reaching logSink.
func Build(logSink ports.LogSink, observer ports.CaptureObserver, overrides ...Override) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}
	for _, override := range overrides {
		override(&cfg)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return Services{}, err
	}
	log := logsink.NewZapTee(logger.Named("activity"), logSink)

	api := voiceapi.NewClient(voiceapi.Config{
		BaseURL:        cfg.API.BaseURL,
		TranscribePath: cfg.API.TranscribePath,
		ChatPath:       cfg.API.ChatPath,
		SynthesizePath: cfg.API.SynthesizePath,
	}, &http.Client{})
	player := audio.NewFFPlayPlayer(cfg.Audio.PlayerCommand)

	pipeline := usecase.NewPipeline(api, player, log,
		usecase.WithPipelineLogger(logger.Named("pipeline")),
	)

	negotiator := media.NewNegotiator(
		audio.NewFFMPEGProbe(cfg.Audio.RecorderCommand),
		media.DefaultCandidates,
		logger.Named("media"),
	)

	opts := []usecase.CaptureOption{usecase.WithCaptureLogger(logger.Named("capture"))}
	if observer != nil {
		opts = append(opts, usecase.WithCaptureObserver(observer))
	}
	capture := usecase.NewCaptureSession(
		audio.NewFFMPEGMicrophone(cfg.Audio.RecorderCommand),
		audio.NewFFMPEGRecorderFactory(cfg.Audio.RecorderCommand),
		negotiator,
		pipeline,
		log,
		ports.AudioConfig{
			SampleRate:  cfg.Audio.SampleRate,
			Channels:    cfg.Audio.Channels,
			InputFormat: cfg.Audio.InputFormat,
			InputDevice: cfg.Audio.InputDevice,
			ChunkSize:   cfg.Audio.ChunkSize,
		},
		opts...,
	)

	return Services{
		Capture:  capture,
		Pipeline: pipeline,
		Player:   player,
		API:      api,
		Config:   cfg,
		Logger:   logger,
	}, nil
}

// WithAPIBase replaces the configured endpoint root when base is non-empty.
func WithAPIBase(base string) Override {
	return func(cfg *config.Config) {
		if base != "" {
			cfg.API.BaseURL = base
		}
	}
}
