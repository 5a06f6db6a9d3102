// Package initcmder provides the init command for initializing a local .bridge
// directory in the current working directory.
package initcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gatewaybridge/pkg/cliui"
	"github.com/papercomputeco/gatewaybridge/pkg/config"
)

const (
	dirName    = ".bridge"
	configFile = "config.toml"

	remoteTimeout = 10 * time.Second
	maxRemoteSize = 1 << 20
)

type initCommander struct {
	preset string
	out    io.Writer
}

const initLongDesc string = `Initialize a new .bridge/ directory in the current working directory.

Creates a local .bridge/ directory that takes precedence over the default
~/.bridge/ directory, and writes a config.toml into it. An existing
config.toml is kept unless --preset is given.

Presets fill in publisher settings:
  redis    Publish to Redis pub/sub on localhost:6379 (default)
  kafka    Publish to Kafka on localhost:9092
  nop      Discard every message

--preset also accepts an http(s) URL pointing at a config.toml to fetch.

Examples:
  bridge init
  bridge init --preset kafka
  bridge init --preset https://config.internal/bridge/config.toml`

const initShortDesc string = "Initialize a local .bridge/ directory"

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "",
		fmt.Sprintf("Config preset (%s) or URL of a config.toml", strings.Join(config.ValidPresetNames(), ", ")))

	return cmd
}

func (c *initCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .bridge directory: %w", err)
	}

	target := filepath.Join(dir, configFile)

	switch {
	case isURL(c.preset):
		data, err := fetchRemote(ctx, c.preset)
		if err != nil {
			return err
		}
		if _, err := config.ParseConfigTOML(data); err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0o600); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

	case c.preset != "":
		cfg, err := config.PresetConfig(c.preset)
		if err != nil {
			return err
		}
		if err := save(dir, cfg); err != nil {
			return err
		}

	default:
		if _, err := os.Stat(target); err == nil {
			fmt.Fprintf(c.out, "\n  %s Already initialized: %s\n\n", cliui.SuccessMark, cliui.DimStyle.Render(dir))
			return nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("reading config: %w", err)
		}
		if err := save(dir, config.NewDefaultConfig()); err != nil {
			return err
		}
	}

	fmt.Fprintf(c.out, "\n  %s Initialized .bridge directory: %s\n", cliui.SuccessMark, cliui.DimStyle.Render(dir))
	fmt.Fprintf(c.out, "%s\n\n", cliui.KeyValue("Config file:", target))
	return nil
}

func save(dir string, cfg *config.Config) error {
	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	return cfger.SaveConfig(cfg)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func fetchRemote(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteSize))
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	return data, nil
}
