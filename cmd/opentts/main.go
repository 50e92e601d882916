package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/exec"

	"github.com/pitabwire/frame"
	"github.com/pitabwire/frame/config"
	"github.com/pitabwire/util"

	ottsconfig "github.com/opentts/wyoming-opentts/config"
	"github.com/opentts/wyoming-opentts/internal/admin"
	"github.com/opentts/wyoming-opentts/internal/httputil"
	"github.com/opentts/wyoming-opentts/internal/speech/engine"
	"github.com/opentts/wyoming-opentts/internal/speech/handler"
	"github.com/opentts/wyoming-opentts/internal/speech/registry"
	"github.com/opentts/wyoming-opentts/internal/wyoming"
	"github.com/opentts/wyoming-opentts/pkg/alias"

	// Register TTS engines via init().
	_ "github.com/opentts/wyoming-opentts/internal/speech/backends/espeak"
	_ "github.com/opentts/wyoming-opentts/internal/speech/backends/festival"
	_ "github.com/opentts/wyoming-opentts/internal/speech/backends/flite"
	_ "github.com/opentts/wyoming-opentts/internal/speech/backends/marytts"
	_ "github.com/opentts/wyoming-opentts/internal/speech/backends/nanotts"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadWithOIDC[ottsconfig.OpenTTSConfig](ctx)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx, srv := frame.NewService(
		frame.WithConfig(&cfg),
		frame.WithName("wyoming-opentts"),
	)
	defer srv.Stop(ctx)

	pool, err := srv.WorkManager().GetPool()
	if err != nil {
		log.Fatalf("getting worker pool: %v", err)
	}

	engines := loadEngines(ctx, cfg)
	if len(engines) == 0 {
		log.Fatal("no TTS engines available; install one or set its binary path")
	}
	defer func() {
		for name, eng := range engines {
			if err := eng.Close(); err != nil {
				util.Log(ctx).WithError(err).Error("closing engine " + name)
			}
		}
	}()

	info, err := handler.BuildInfo(ctx, engines)
	if err != nil {
		log.Fatalf("building voice catalog: %v", err)
	}

	handlerCfg := handler.Config{
		Engines:         engines,
		Info:            info,
		SamplesPerChunk: cfg.SamplesPerChunk,
		OutputRate:      cfg.OutputSampleRate,
		SayTimeout:      cfg.SayTimeout(),
	}

	if cfg.VoiceAliasFile != "" {
		aliases := alias.NewLoader(cfg.VoiceAliasFile)
		if err := aliases.Load(); err != nil {
			log.Fatalf("loading voice aliases: %v", err)
		}
		slog.InfoContext(ctx, "loaded voice aliases",
			slog.String("file", cfg.VoiceAliasFile),
			slog.Int("count", aliases.Len()),
		)
		handlerCfg.Aliases = aliases

		watch := func() {
			if err := aliases.WatchAndReload(ctx.Done()); err != nil {
				util.Log(ctx).WithError(err).Error("watching voice aliases")
			}
		}
		if err := pool.Submit(ctx, watch); err != nil {
			log.Fatalf("starting alias watcher: %v", err)
		}
	}

	wyServer := wyoming.NewServer(cfg.WyomingURI, pool, func(w *wyoming.Writer, clientID string) wyoming.Handler {
		return handler.New(handlerCfg, w, clientID)
	})
	if err := pool.Submit(ctx, func() {
		if err := wyServer.Run(ctx); err != nil {
			util.Log(ctx).WithError(err).Error("wyoming server exited")
		}
	}); err != nil {
		log.Fatalf("starting wyoming server: %v", err)
	}

	slog.InfoContext(ctx, "ready", slog.String("uri", cfg.WyomingURI))

	mux := http.NewServeMux()
	admin.NewHandler(engines).RegisterRoutes(mux)
	srv.Init(ctx, frame.WithHTTPHandler(httputil.H2CHandler(mux)))

	if err := srv.Run(ctx, ""); err != nil {
		log.Fatalf("service exited: %v", err)
	}
}

// loadEngines instantiates every engine that is configured or whose
// binary can be found on PATH.
func loadEngines(ctx context.Context, cfg ottsconfig.OpenTTSConfig) map[string]engine.TTSEngine {
	engines := make(map[string]engine.TTSEngine)

	create := func(name string, engineConfig map[string]string) {
		eng, err := registry.TTS.Create(name, engineConfig)
		if err != nil {
			util.Log(ctx).WithError(err).Error("loading engine " + name)
			return
		}
		engines[name] = eng
	}

	if bin := probeBinary(cfg.EspeakBin, "espeak-ng"); bin != "" {
		create("espeak-ng", map[string]string{"binary_path": bin})
	}
	if bin := probeBinary(cfg.NanoTTSBin, "nanotts"); bin != "" {
		create("nanotts", map[string]string{
			"binary_path": bin,
			"lang_dir":    cfg.NanoTTSLangDir,
		})
	}
	if bin := probeBinary(cfg.FliteBin, "flite"); bin != "" {
		create("flite", map[string]string{
			"binary_path": bin,
			"voice_dir":   cfg.FliteVoicesDir,
		})
	}
	if bin := probeBinary(cfg.FestivalBin, "text2wave"); bin != "" {
		create("festival", map[string]string{"binary_path": bin})
	}
	if cfg.MaryTTSDir != "" {
		if _, err := exec.LookPath("java"); err != nil {
			slog.WarnContext(ctx, "java is not installed, marytts disabled")
		} else {
			create("marytts", map[string]string{"base_dir": cfg.MaryTTSDir})
		}
	}

	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	slog.InfoContext(ctx, fmt.Sprintf("loaded TTS engines: %v", names))

	return engines
}

// probeBinary returns the configured path, or the PATH lookup result
// when no path is configured.
func probeBinary(configured, defaultName string) string {
	if configured != "" {
		return configured
	}
	if path, err := exec.LookPath(defaultName); err == nil {
		return path
	}
	return ""
}
