package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	auditKey   string
	auditLimit int
)

var auditCmd = &cobra.Command{
	Use:     "audit",
	Short:   "Show the append-only audit trail",
	GroupID: "vault",
	Args:    cobra.NoArgs,
	RunE:    runAudit,
}

func init() {
	auditCmd.Flags().StringVar(&auditKey, "key", "", "filter to entries touching this key")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 50, "show at most this many entries (0 means unlimited)")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	v, err := openVault()
	if err != nil {
		return fmt.Errorf("failed to open vault: %w", err)
	}
	defer v.Close()

	entries := v.GetAuditLog(auditKey, auditLimit)
	if len(entries) == 0 {
		fmt.Println("no audit entries")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Timestamp", "Operation", "Key", "Success", "Tamper", "Error"})

	var data [][]string
	for _, e := range entries {
		tamper := ""
		if e.TamperDetected {
			tamper = "YES"
		}
		data = append(data, []string{
			e.Timestamp,
			string(e.Operation),
			e.Key,
			fmt.Sprintf("%t", e.Success),
			tamper,
			e.Error,
		})
	}
	_ = table.Bulk(data)
	_ = table.Render()
	return nil
}
