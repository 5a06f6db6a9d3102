// Package healthcmder provides the health command, which checks the
// Gateway's health endpoint.
package healthcmder

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gatewaybridge/pkg/cliui"
	"github.com/papercomputeco/gatewaybridge/pkg/config"
	"github.com/papercomputeco/gatewaybridge/pkg/gateway"
	"github.com/papercomputeco/gatewaybridge/pkg/utils"
)

const maxBodyPreview = 120

type healthCommander struct {
	gatewayURL string
	out        io.Writer
}

const healthLongDesc string = `Check that the Gateway is reachable.

Sends GET <gateway-url>/health and reports the response. Exits non-zero if
the Gateway cannot be reached or answers with a non-2xx status.

Examples:
  bridge health
  bridge health --gateway-url https://gateway.internal:4000`

const healthShortDesc string = "Check Gateway health"

func NewHealthCmd() *cobra.Command {
	cmder := &healthCommander{out: os.Stdout}

	cmd := &cobra.Command{
		Use:   "health",
		Short: healthShortDesc,
		Long:  healthLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagGatewayURL})
			cmder.gatewayURL = v.GetString("gateway.base_url")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagGatewayURL, &cmder.gatewayURL)

	return cmd
}

func (c *healthCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	base, err := gateway.ParseBaseURL(c.gatewayURL)
	if err != nil {
		return err
	}

	client, err := gateway.NewClient(base)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "\n%s\n\n", cliui.KeyValue("Gateway:", base.String()))

	var status *gateway.HealthStatus
	err = cliui.Step(c.out, "Checking gateway health", func() error {
		var err error
		status, err = client.Health(ctx)
		if err != nil {
			return err
		}
		if !status.Healthy {
			return fmt.Errorf("gateway answered with status %d", status.StatusCode)
		}
		return nil
	})
	if status != nil && status.Body != "" {
		fmt.Fprintf(c.out, "    %s\n", cliui.DimStyle.Render(utils.Truncate(status.Body, maxBodyPreview)))
	}
	fmt.Fprintln(c.out)

	return err
}
