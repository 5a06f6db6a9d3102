// Package bridgecmder
package bridgecmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/gatewaybridge/cmd/bridge/config"
	healthcmder "github.com/papercomputeco/gatewaybridge/cmd/bridge/health"
	initcmder "github.com/papercomputeco/gatewaybridge/cmd/bridge/init"
	runcmder "github.com/papercomputeco/gatewaybridge/cmd/bridge/run"
	versioncmder "github.com/papercomputeco/gatewaybridge/cmd/version"
)

const bridgeLongDesc string = `Bridge relays a tenant's Gateway event stream onto a pub/sub backend.

Get started with:
  bridge init                Create a local .bridge/ config
  bridge health              Check that the Gateway is reachable
  bridge run --tenant acme   Bridge the acme stream until interrupted`

const bridgeShortDesc string = "Bridge - Gateway realtime event bridge"

func NewBridgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "bridge",
		Short:        bridgeShortDesc,
		Long:         bridgeLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory holding config.toml (default: ./.bridge or ~/.bridge)")

	// Add subcommands
	cmd.AddCommand(runcmder.NewRunCmd())
	cmd.AddCommand(healthcmder.NewHealthCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
