// Package configcmder provides the config command for managing persistent
// bridge configuration stored in the .bridge/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gatewaybridge/pkg/cliui"
	"github.com/papercomputeco/gatewaybridge/pkg/config"
)

const configLongDesc string = `Manage persistent bridge configuration.

Configuration is stored as config.toml in the .bridge/ directory and provides
default values for command flags. Environment variables and CLI flags take
precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  gateway.base_url, gateway.stream_path,
  stream.tenant_id, stream.read_timeout_ms, stream.initial_backoff_ms,
  stream.max_backoff_ms, stream.default_event,
  publisher.provider, publisher.target, publisher.kafka_topic, publisher.timeout_ms,
  diagnostics.enabled, diagnostics.path,
  api.enabled, api.listen

Use subcommands to get, set, or list configuration values:
  bridge config set <key> <value>    Set a configuration value
  bridge config get <key>            Get a configuration value
  bridge config list                 List all configuration values

Examples:
  bridge config set stream.tenant_id acme
  bridge config set publisher.provider kafka
  bridge config get gateway.base_url
  bridge config list`

const configShortDesc string = "Manage persistent bridge configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func validArgs(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
		key, strings.Join(config.ValidConfigKeys(), ", "))
}

// printTarget writes the config file in use, or a note that defaults apply.
func printTarget(w io.Writer, cfger *config.Configer) {
	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
