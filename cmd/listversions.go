package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var listVersionsCmd = &cobra.Command{
	Use:     "list-versions <key>",
	Short:   "List every surviving version of a secret",
	GroupID: "secrets",
	Args:    cobra.ExactArgs(1),
	RunE:    runListVersions,
}

func init() {
	rootCmd.AddCommand(listVersionsCmd)
}

func runListVersions(cmd *cobra.Command, args []string) error {
	key := args[0]

	v, err := openVault()
	if err != nil {
		return fmt.Errorf("failed to open vault: %w", err)
	}
	defer v.Close()

	versions := v.ListVersions(key)
	if len(versions) == 0 {
		fmt.Printf("%q has no versions\n", key)
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Version", "Created", "Metadata"})

	var data [][]string
	for _, vs := range versions {
		data = append(data, []string{
			fmt.Sprintf("%d", vs.Version),
			vs.Timestamp,
			fmt.Sprintf("%v", vs.Metadata),
		})
	}
	_ = table.Bulk(data)
	_ = table.Render()
	return nil
}
