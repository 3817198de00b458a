package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <key>",
	Short:   "Delete a secret and its entire version history",
	GroupID: "secrets",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	key := args[0]

	v, err := openVault()
	if err != nil {
		return fmt.Errorf("failed to open vault: %w", err)
	}
	defer v.Close()

	existed, err := v.Delete(key)
	if err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	if !existed {
		printWarning("%q did not exist", key)
		return nil
	}

	printSuccess("deleted %q", key)
	return nil
}
