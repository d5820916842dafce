package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	httpcmd "github.com/rodrigoprogmaster-prog/clinica/cmd/http"
	systemcmd "github.com/rodrigoprogmaster-prog/clinica/cmd/system"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/constants"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   constants.AppName,
	Short: "Clinic management backend for a single practitioner.",
	Long: `Clinica keeps a small clinic's patients, appointments, clinical notes and
finances, sends appointment reminders over WhatsApp or email, and serves
everything to the practitioner's front end as a JSON API.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global config flag, available for all commands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	// Attach top-level command trees.
	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
}
