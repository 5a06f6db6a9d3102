// Package runcmder provides the run command, which bridges one tenant's
// Gateway stream onto the configured publisher until interrupted.
package runcmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gatewaybridge/api"
	"github.com/papercomputeco/gatewaybridge/bridge"
	"github.com/papercomputeco/gatewaybridge/pkg/config"
	"github.com/papercomputeco/gatewaybridge/pkg/diagnostics"
	"github.com/papercomputeco/gatewaybridge/pkg/eventstream"
	eventstreamutils "github.com/papercomputeco/gatewaybridge/pkg/eventstream/utils"
	"github.com/papercomputeco/gatewaybridge/pkg/gateway"
	"github.com/papercomputeco/gatewaybridge/pkg/metrics"
)

// runFlags are the registry flags the run command exposes.
var runFlags = []string{
	config.FlagGatewayURL,
	config.FlagStreamPath,
	config.FlagTenant,
	config.FlagReadTimeout,
	config.FlagInitialBackoff,
	config.FlagMaxBackoff,
	config.FlagDefaultEvent,
	config.FlagPublisherProvider,
	config.FlagPublisherTarget,
	config.FlagKafkaTopic,
	config.FlagPublishTimeout,
	config.FlagDiagnosticsPath,
	config.FlagAPIListen,
}

type runCommander struct {
	cfg       *config.Config
	configDir string

	debug   bool
	logJSON bool
	logFile string
	noAPI   bool

	// flag targets; the resolved values are read back through viper
	gatewayURL     string
	streamPath     string
	tenant         string
	readTimeout    uint
	initialBackoff uint
	maxBackoff     uint
	defaultEvent   string
	provider       string
	target         string
	kafkaTopic     string
	publishTimeout uint
	diagPath       string
	apiListen      string

	logger *slog.Logger
}

const runLongDesc string = `Run the bridge.

Opens the tenant's server-sent event stream on the Gateway and republishes
every named event onto the configured publisher under the topic
"messages:<tenant>" as a "message_event". The stream is reopened with exponential backoff
whenever it fails, closes or goes silent for longer than the read timeout.

Configuration is read from flags, BRIDGE_* environment variables (plus the
GATEWAY_URL and TENANT_ID aliases) and config.toml, in that order.

Supported publishers: redis, kafka, nop`

const runShortDesc string = "Run the Gateway event bridge"

func NewRunCmd() *cobra.Command {
	cmder := &runCommander{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: runShortDesc,
		Long:  runLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, runFlags)
			cmder.cfg = config.FromViper(v)
			cmder.configDir = v.GetString("config_dir")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagGatewayURL, &cmder.gatewayURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagStreamPath, &cmder.streamPath)
	config.AddStringFlag(cmd, config.Flags, config.FlagTenant, &cmder.tenant)
	config.AddUintFlag(cmd, config.Flags, config.FlagReadTimeout, &cmder.readTimeout)
	config.AddUintFlag(cmd, config.Flags, config.FlagInitialBackoff, &cmder.initialBackoff)
	config.AddUintFlag(cmd, config.Flags, config.FlagMaxBackoff, &cmder.maxBackoff)
	config.AddStringFlag(cmd, config.Flags, config.FlagDefaultEvent, &cmder.defaultEvent)
	config.AddStringFlag(cmd, config.Flags, config.FlagPublisherProvider, &cmder.provider)
	config.AddStringFlag(cmd, config.Flags, config.FlagPublisherTarget, &cmder.target)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaTopic, &cmder.kafkaTopic)
	config.AddUintFlag(cmd, config.Flags, config.FlagPublishTimeout, &cmder.publishTimeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagDiagnosticsPath, &cmder.diagPath)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.apiListen)
	cmd.Flags().BoolVar(&cmder.logJSON, "log-json", false, "Write logs as JSON")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON logs to this file")
	cmd.Flags().BoolVar(&cmder.noAPI, "no-api", false, "Do not start the status API")

	return cmd
}

func (c *runCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	log, closeLog, err := newLogger(os.Stdout, c.debug, c.logJSON, c.logFile)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()
	c.logger = log

	bcfg, err := BridgeConfig(c.cfg)
	if err != nil {
		return err
	}

	publisher, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: c.cfg.Publisher.Provider,
		Target:       c.cfg.Publisher.Target,
		KafkaTopic:   c.cfg.Publisher.KafkaTopic,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer publisher.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c.checkPublisher(ctx, publisher)

	var sink diagnostics.Sink = diagnostics.Nop{}
	if c.cfg.Diagnostics.Enabled && c.cfg.Diagnostics.Path != "" {
		fileSink, err := diagnostics.NewFileSink(&diagnostics.Config{
			Path:   config.ResolvePath(c.configDir, c.cfg.Diagnostics.Path),
			Logger: c.logger,
		})
		if err != nil {
			return fmt.Errorf("creating diagnostics sink: %w", err)
		}
		defer fileSink.Close()
		sink = fileSink
	}

	m := metrics.New()

	b, err := bridge.New(bcfg, bridge.Options{
		Publisher: publisher,
		Logger:    c.logger,
		Sink:      sink,
		Metrics:   m,
	})
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}

	errChan := make(chan error, 1)
	if c.cfg.API.Enabled && !c.noAPI && c.cfg.API.Listen != "" {
		server := api.NewServer(api.Config{ListenAddr: c.cfg.API.Listen}, b, m, c.logger)
		go func() {
			if err := server.Run(); err != nil {
				errChan <- fmt.Errorf("API server error: %w", err)
			}
		}()
		defer func() {
			if err := server.Shutdown(); err != nil {
				c.logger.Warn("shutting down API server", "error", err)
			}
		}()
	}

	c.logger.Info("publisher ready",
		"provider", c.cfg.Publisher.Provider,
		"target", c.cfg.Publisher.Target,
		"config_dir", c.configDir,
	)

	bridgeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- b.Run(bridgeCtx)
	}()

	select {
	case err := <-errChan:
		cancel()
		<-done
		return err
	case err := <-done:
		return err
	case <-ctx.Done():
		c.logger.Info("received signal, shutting down")
		cancel()
		return <-done
	}
}

// checkPublisher pings publishers that support it. A failed ping is only
// logged; publish failures are handled per frame once the bridge runs.
func (c *runCommander) checkPublisher(ctx context.Context, p eventstream.Publisher) {
	pinger, ok := p.(interface {
		Ping(ctx context.Context) error
	})
	if !ok {
		return
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := pinger.Ping(pingCtx); err != nil {
		c.logger.Warn("publisher is not reachable yet", "provider", c.cfg.Publisher.Provider, "error", err)
	}
}

// BridgeConfig converts the persisted configuration into a bridge.Config.
func BridgeConfig(cfg *config.Config) (bridge.Config, error) {
	if cfg == nil {
		return bridge.Config{}, errors.New("no configuration loaded")
	}

	base, err := gateway.ParseBaseURL(cfg.Gateway.BaseURL)
	if err != nil {
		return bridge.Config{}, fmt.Errorf("%w: %w", bridge.ErrInvalidConfig, err)
	}

	return bridge.Config{
		TenantID:       cfg.Stream.TenantID,
		GatewayURL:     base,
		StreamPath:     cfg.Gateway.StreamPath,
		InitialBackoff: millis(cfg.Stream.InitialBackoffMs),
		MaxBackoff:     millis(cfg.Stream.MaxBackoffMs),
		ReadTimeout:    millis(cfg.Stream.ReadTimeoutMs),
		DefaultEvent:   cfg.Stream.DefaultEvent,
		PublishTimeout: millis(cfg.Publisher.TimeoutMs),
	}, nil
}

func millis(ms uint) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
