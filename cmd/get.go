package cmd

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

var (
	getVersion uint32
	getClip    bool
)

var getCmd = &cobra.Command{
	Use:     "get <key>",
	Short:   "Retrieve a secret's value",
	GroupID: "secrets",
	Args:    cobra.ExactArgs(1),
	RunE:    runGet,
}

func init() {
	getCmd.Flags().Uint32Var(&getVersion, "version", 0, "retrieve a specific version instead of the latest")
	getCmd.Flags().BoolVar(&getClip, "clip", false, "copy the value to the clipboard instead of printing it")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	v, err := openVault()
	if err != nil {
		return fmt.Errorf("failed to open vault: %w", err)
	}
	defer v.Close()

	var versionArg *uint32
	if cmd.Flags().Changed("version") {
		versionArg = &getVersion
	}

	value, err := v.Get(key, versionArg)
	if err != nil {
		return fmt.Errorf("failed to get %q: %w", key, err)
	}

	if getClip {
		if err := clipboard.WriteAll(string(value)); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		printSuccess("copied %q to clipboard", key)
		return nil
	}

	fmt.Println(string(value))
	return nil
}
