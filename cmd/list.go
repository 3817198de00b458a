package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List every secret name in the vault",
	GroupID: "secrets",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	v, err := openVault()
	if err != nil {
		return fmt.Errorf("failed to open vault: %w", err)
	}
	defer v.Close()

	keys := v.ListKeys()
	if len(keys) == 0 {
		fmt.Println("vault is empty")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Key", "Versions"})

	var data [][]string
	for _, key := range keys {
		versions := v.ListVersions(key)
		data = append(data, []string{key, fmt.Sprintf("%d", len(versions))})
	}
	_ = table.Bulk(data)
	_ = table.Render()
	return nil
}
