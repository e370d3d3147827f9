// Package cli implements emuctl, the command line client for the emulator
// service. Every command talks to the service through pkg/client; nothing
// here touches the stores directly.
package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"emulator-service/pkg/client"
)

// rootOptions carry the connection settings shared by every subcommand,
// resolved from flags and EMUCTL_* environment variables.
type rootOptions struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

func (o *rootOptions) newClient() *client.Client {
	return o.newClientFor(o.URL)
}

func (o *rootOptions) newClientFor(url string) *client.Client {
	opts := []client.Option{
		client.WithTimeout(o.Timeout),
		client.WithCache(64),
	}
	if o.APIKey != "" {
		opts = append(opts, client.WithAPIKey(o.APIKey))
	}
	return client.New(url, opts...)
}

// NewRootCmd builds the emuctl command tree. Connection flags may also be
// set through the environment: EMUCTL_URL, EMUCTL_API_KEY, EMUCTL_TIMEOUT.
// Flags win over the environment.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "emuctl",
		Short: "Client for the emulator service",
		Long: "emuctl uploads datasets, trains emulators and requests predictions\n" +
			"from an emulator service instance.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.URL = v.GetString("url")
			opts.APIKey = v.GetString("api-key")
			opts.Timeout = v.GetDuration("timeout")
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("url", "http://localhost:8080", "base URL of the emulator service")
	flags.String("api-key", "", "API key sent as X-API-Key")
	flags.Duration("timeout", 30*time.Second, "timeout per request")

	v.SetEnvPrefix("EMUCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(flags)

	cmd.AddCommand(
		newDatasetsCmd(opts),
		newEmulatorsCmd(opts),
		newRunCmd(opts),
		newPlotCmd(opts),
	)
	return cmd
}
