package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"content_assistant/config"
	"content_assistant/generator"
	"content_assistant/logger"
	"content_assistant/publisher"
	"content_assistant/server"
)

var verbose bool

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config.yaml")
	serve := flag.Bool("serve", false, "start web server")
	addr := flag.String("addr", "", "http listen address when --serve (overrides server.addr)")
	mock := flag.Bool("mock", false, "answer locally instead of calling the backend")
	flag.BoolVar(&verbose, "v", false, "enable debug logs")

	assistant := flag.String("assistant", "", "assistant persona (Zeus or Crev)")
	topic := flag.String("topic", "", "topic or product description")
	brand := flag.String("brand", "", "brand type")
	audience := flag.String("audience", "", "target audience")
	tone := flag.String("tone", "", "tone of voice")
	platform := flag.String("platform", "", "LinkedIn, Instagram, X, Blog or Custom")
	model := flag.String("model", "", "model identifier passed to the backend")
	temperature := flag.Float64("temperature", 0, "sampling temperature in [0,1]")
	maxTokens := flag.Int("max-tokens", 0, "maximum output tokens")
	example := flag.Int("example", -1, "apply the example at this index before submitting")
	copyOut := flag.Bool("copy", false, "copy the output to the clipboard")
	download := flag.Bool("download", false, "save the output as a .txt file in download.dir")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	if err := logger.Init(level, cfg.Log.Format, cfg.Log.OutputPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctrl, err := buildController(cfg, *mock)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	pub := publisher.New(cfg.Download.Dir)

	// Web server mode
	if *serve {
		listen := cfg.Server.Addr
		if *addr != "" {
			listen = *addr
		}
		if err := runServer(ctrl, pub, cfg.Server.Mode, listen); err != nil {
			logger.Fatal("server stopped", err)
		}
		return
	}

	if *example >= 0 {
		ex, ok := generator.ExampleAt(*example)
		if !ok {
			fmt.Fprintf(os.Stderr, "--example %d out of range (0..%d)\n", *example, len(generator.Examples())-1)
			os.Exit(1)
		}
		ctrl.ApplyExample(ex)
	}

	// Only flags given on the command line override the configured defaults.
	p := ctrl.Params()
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "assistant":
			p.Assistant = *assistant
		case "topic":
			p.Topic = *topic
		case "brand":
			p.BrandType = *brand
		case "audience":
			p.Audience = *audience
		case "tone":
			p.Tone = *tone
		case "platform":
			p.Platform = *platform
		case "model":
			p.Model = *model
		case "temperature":
			p.Temperature = *temperature
		case "max-tokens":
			p.MaxTokens = *maxTokens
		}
	})
	if err := ctrl.SetParams(p); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger.Infow("[cli] submitting", "assistant", p.Assistant, "platform", p.Platform, "model", p.Model)
	if err := ctrl.Submit(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, generator.Message(err))
		os.Exit(1)
	}
	snap := ctrl.Snapshot()
	fmt.Println(snap.Output)

	if *copyOut {
		ctrl.CopyOutput()
	}
	if *download {
		d, ok := ctrl.DownloadOutput()
		if !ok {
			fmt.Fprintln(os.Stderr, "nothing to download: output is empty")
			os.Exit(1)
		}
		path, err := pub.SaveDownload(d)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "saved", path)
	}
}

func buildController(cfg *config.Config, mock bool) (*generator.Controller, error) {
	var backend generator.Backend
	if mock {
		backend = generator.MockBackend{}
	} else {
		b, err := generator.NewHTTPBackend(&generator.BackendSettings{
			BaseURL:  cfg.Backend.BaseURL,
			Endpoint: cfg.Backend.Endpoint,
			Timeout:  cfg.Backend.Timeout,
		})
		if err != nil {
			return nil, err
		}
		backend = b
	}

	defaults := generator.DefaultParams()
	defaults.Assistant = cfg.Defaults.Assistant
	defaults.Tone = cfg.Defaults.Tone
	defaults.Platform = cfg.Defaults.Platform
	defaults.Model = cfg.Defaults.Model
	defaults.Temperature = cfg.Defaults.Temperature
	defaults.MaxTokens = cfg.Defaults.MaxTokens

	return generator.NewController(backend, defaults,
		generator.WithClipboard(publisher.SystemClipboard{}),
		generator.WithDiscardStale(cfg.Behavior.DiscardStaleResponses),
		generator.WithClearOutputOnFailure(cfg.Behavior.ClearOutputOnFailure),
	)
}

func runServer(ctrl *generator.Controller, pub *publisher.Publisher, mode, listen string) error {
	if mode != "" {
		gin.SetMode(mode)
	}
	srv, err := server.New(ctrl, pub)
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Addr:    listen,
		Handler: srv.Routes(),
	}

	go func() {
		logger.Infof("Starting web server on %s", listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down web server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}
