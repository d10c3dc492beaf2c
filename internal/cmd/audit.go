package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Scan every schedule once for overlapping tasks",
	Args:  cobra.NoArgs,
	RunE:  runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	findings, err := svc.audit.Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(findings) == 0 {
		fmt.Fprintln(out, "No overlapping tasks found")
		return nil
	}
	for _, f := range findings {
		fmt.Fprintf(out, "%s: %q (%s) overlaps %q (%s)\n",
			f.OwnerID, f.First.Title, f.First.ID, f.Second.Title, f.Second.ID)
	}
	return fmt.Errorf("%d overlapping pair(s) found", len(findings))
}
