// Package cmd holds the yourday command line.
package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"yourday/internal/config"
	"yourday/internal/logger"
)

var (
	cfgFile string
	cfg     config.Config
	log     zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "yourday",
	Short: "Personal day planner that refuses double bookings",
	Long: `yourday stores a personal schedule of tasks and rejects any task whose
time range overlaps another task of the same user. It serves a JSON API,
an optional Telegram chat front end, and a small API client.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		log = logger.New(cfg.LogLevel, cfg.LogFormat)
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (env and .env are always read)")
}
