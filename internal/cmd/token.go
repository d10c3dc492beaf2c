package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"yourday/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token [userId]",
	Short: "Issue a bearer token for a user id (a new id when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	if err := cfg.RequireSecret(); err != nil {
		return err
	}

	ownerID := uuid.NewString()
	if len(args) == 1 {
		ownerID = args[0]
	}

	token, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL).Issue(ownerID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "userId: %s\n", ownerID)
	fmt.Fprintf(out, "token:  %s\n", token)
	return nil
}
