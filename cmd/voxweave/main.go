// Command voxweave converts speaker-tagged transcripts into merged audio
// files using a configurable TTS backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/voxweave/voxweave/internal/config"
	"github.com/voxweave/voxweave/internal/observe"
	"github.com/voxweave/voxweave/internal/pipeline"
	"github.com/voxweave/voxweave/pkg/provider/tts"
	"github.com/voxweave/voxweave/pkg/provider/tts/elevenlabs"
	"github.com/voxweave/voxweave/pkg/provider/tts/geminimulti"
	"github.com/voxweave/voxweave/pkg/provider/tts/mock"
	"github.com/voxweave/voxweave/pkg/provider/tts/openai"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "voxweave: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "voxweave",
		Short: "Turn speaker-tagged transcripts into finished audio",
		Long: `voxweave reads a transcript annotated with <personN> speaker tags,
synthesises every turn through a text-to-speech backend, and merges the
results into a single audio file plus a timing-annotated transcript.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML configuration file")

	root.AddCommand(
		newConvertCmd(&configPath),
		newVoicesCmd(&configPath),
		newProvidersCmd(),
	)
	return root
}

func newConvertCmd(configPath *string) *cobra.Command {
	var outputStem string

	cmd := &cobra.Command{
		Use:   "convert <transcript-file>",
		Short: "Convert a transcript file into merged audio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			slog.SetDefault(newLogger(cfg.LogLevel))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{})
			if err != nil {
				return fmt.Errorf("init telemetry: %w", err)
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					slog.Warn("telemetry shutdown error", "err", err)
				}
			}()

			g, ctx := errgroup.WithContext(ctx)
			if cfg.MetricsAddr != "" {
				startMetricsServer(ctx, g, cfg.MetricsAddr)
			}

			provider, err := buildProvider(ctx, cfg)
			if err != nil {
				return err
			}

			text, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read transcript: %w", err)
			}

			stem := outputStem
			if stem == "" {
				base := filepath.Base(args[0])
				stem = strings.TrimSuffix(base, filepath.Ext(base))
			}

			converter, err := pipeline.New(provider, cfg.Output,
				pipeline.WithProviderName(cfg.Provider.Name),
			)
			if err != nil {
				return err
			}

			result, err := converter.Convert(ctx, string(text), cfg.VoiceConfigs(), stem)
			if err != nil {
				return err
			}

			fmt.Printf("wrote %s (%s, %d segments)\n", result.AudioPath, result.Duration.Round(time.Millisecond), result.Segments)
			fmt.Printf("wrote %s\n", result.TranscriptPath)

			stop()
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputStem, "output", "o", "", "output file stem (default: transcript file name)")
	return cmd
}

func newVoicesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "voices",
		Short: "List voices available from the configured provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			slog.SetDefault(newLogger(cfg.LogLevel))

			if cfg.Provider.Name != "elevenlabs" {
				return fmt.Errorf("provider %q does not support voice listing", cfg.Provider.Name)
			}
			p, err := buildProvider(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			el, ok := p.(*elevenlabs.Provider)
			if !ok {
				return fmt.Errorf("provider %q does not support voice listing", cfg.Provider.Name)
			}
			voices, err := el.Voices(cmd.Context())
			if err != nil {
				return err
			}
			for _, v := range voices {
				fmt.Printf("%s\t%s\n", v.VoiceID, v.Name)
			}
			return nil
		},
	}
}

func newProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List built-in provider names",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ValidProviderNames {
				fmt.Println(name)
			}
		},
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file %q not found — copy configs/example.yaml to get started", path)
		}
		return nil, err
	}
	return cfg, nil
}

// buildProvider instantiates the configured TTS provider through the
// registry.
func buildProvider(ctx context.Context, cfg *config.Config) (tts.Provider, error) {
	reg := config.NewRegistry()
	registerBuiltinProviders(ctx, reg)

	p, err := reg.CreateTTS(cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("create tts provider %q: %w", cfg.Provider.Name, err)
	}
	slog.Info("provider created", "name", cfg.Provider.Name, "model", cfg.Provider.Model)
	return p, nil
}

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the provider
// from the real implementation packages.
func registerBuiltinProviders(ctx context.Context, reg *config.Registry) {
	reg.RegisterTTS("elevenlabs", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, elevenlabs.WithBaseURL(entry.BaseURL))
		}
		if entry.Streaming {
			opts = append(opts, elevenlabs.WithStreaming(true))
		}
		return elevenlabs.New(entry.APIKey, opts...)
	})

	reg.RegisterTTS("openai", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []openai.Option
		if entry.Model != "" {
			opts = append(opts, openai.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		if entry.Speed != 0 {
			opts = append(opts, openai.WithSpeed(entry.Speed))
		}
		if format := optString(entry.Options, "response_format"); format != "" {
			opts = append(opts, openai.WithFormat(format))
		}
		return openai.New(entry.APIKey, opts...)
	})

	reg.RegisterTTS("geminimulti", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []geminimulti.Option
		if entry.Model != "" {
			opts = append(opts, geminimulti.WithModel(entry.Model))
		}
		if entry.Language != "" {
			opts = append(opts, geminimulti.WithLanguage(entry.Language))
		}
		return geminimulti.New(ctx, entry.APIKey, opts...)
	})

	reg.RegisterTTS("mock", func(entry config.ProviderEntry) (tts.Provider, error) {
		if optBool(entry.Options, "joint") {
			return &mock.JointProvider{}, nil
		}
		return &mock.SegmentProvider{}, nil
	})
}

// startMetricsServer serves the Prometheus /metrics endpoint until ctx is
// cancelled.
func startMetricsServer(ctx context.Context, g *errgroup.Group, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	g.Go(func() error {
		slog.Info("metrics server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// optString extracts a string value from a provider Options map.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	s, _ := opts[key].(string)
	return s
}

// optBool extracts a bool value from a provider Options map.
func optBool(opts map[string]any, key string) bool {
	if opts == nil {
		return false
	}
	b, _ := opts[key].(bool)
	return b
}
