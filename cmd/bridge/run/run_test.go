package runcmder_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	runcmder "github.com/papercomputeco/gatewaybridge/cmd/bridge/run"
	"github.com/papercomputeco/gatewaybridge/bridge"
	"github.com/papercomputeco/gatewaybridge/pkg/config"
)

var _ = Describe("NewRunCmd", func() {
	It("registers every bridge flag", func() {
		cmd := runcmder.NewRunCmd()
		for _, name := range []string{
			"gateway-url", "stream-path", "tenant", "read-timeout-ms",
			"initial-backoff-ms", "max-backoff-ms", "default-event",
			"publisher", "publisher-target", "kafka-topic",
			"publish-timeout-ms", "diagnostics-path", "api-listen",
			"log-json", "log-file", "no-api",
		} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
	})

	It("takes flag defaults from the default config", func() {
		cmd := runcmder.NewRunCmd()
		Expect(cmd.Flags().Lookup("gateway-url").DefValue).To(Equal("http://localhost:4000"))
		Expect(cmd.Flags().Lookup("max-backoff-ms").DefValue).To(Equal("30000"))
		Expect(cmd.Flags().Lookup("publisher").DefValue).To(Equal("redis"))
	})

	It("rejects positional arguments", func() {
		cmd := runcmder.NewRunCmd()
		Expect(cmd.Args(cmd, []string{"acme"})).NotTo(Succeed())
	})
})

var _ = Describe("BridgeConfig", func() {
	It("converts millisecond settings into durations", func() {
		cfg := config.NewDefaultConfig()
		cfg.Stream.TenantID = "acme"
		cfg.Stream.DefaultEvent = "message"

		bcfg, err := runcmder.BridgeConfig(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(bcfg.TenantID).To(Equal("acme"))
		Expect(bcfg.GatewayURL.String()).To(Equal("http://localhost:4000"))
		Expect(bcfg.StreamPath).To(Equal("/api/v1/messages/stream"))
		Expect(bcfg.ReadTimeout).To(Equal(30 * time.Second))
		Expect(bcfg.InitialBackoff).To(Equal(time.Second))
		Expect(bcfg.MaxBackoff).To(Equal(30 * time.Second))
		Expect(bcfg.PublishTimeout).To(Equal(5 * time.Second))
		Expect(bcfg.DefaultEvent).To(Equal("message"))
	})

	It("rejects a relative gateway URL", func() {
		cfg := config.NewDefaultConfig()
		cfg.Gateway.BaseURL = "gateway.internal"

		_, err := runcmder.BridgeConfig(cfg)
		Expect(err).To(MatchError(bridge.ErrInvalidConfig))
	})

	It("rejects a nil config", func() {
		_, err := runcmder.BridgeConfig(nil)
		Expect(err).To(HaveOccurred())
	})
})
