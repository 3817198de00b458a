package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/howeyc/gopass"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var setStdin bool

var setCmd = &cobra.Command{
	Use:     "set <key> [value]",
	Short:   "Store a new version of a secret",
	GroupID: "secrets",
	Args:    cobra.RangeArgs(1, 2),
	RunE:    runSet,
}

func init() {
	setCmd.Flags().BoolVar(&setStdin, "stdin", false, "read the secret value from stdin instead of the argument")
	rootCmd.AddCommand(setCmd)
}

func runSet(cmd *cobra.Command, args []string) error {
	key := args[0]

	value, err := resolveSetValue(args)
	if err != nil {
		return err
	}

	v, err := openVault()
	if err != nil {
		return fmt.Errorf("failed to open vault: %w", err)
	}
	defer v.Close()

	version, err := v.Set(key, value, nil)
	if err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}

	printSuccess("stored %q as version %d", key, version)
	return nil
}

func resolveSetValue(args []string) ([]byte, error) {
	if setStdin {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil && len(line) == 0 {
			return nil, fmt.Errorf("failed to read value from stdin: %w", err)
		}
		return []byte(trimNewline(line)), nil
	}

	if len(args) == 2 {
		return []byte(args[1]), nil
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(os.Stderr, "value: ")
		pw, err := gopass.GetPasswdMasked()
		if err != nil {
			return nil, fmt.Errorf("failed to read value: %w", err)
		}
		return pw, nil
	}

	return nil, fmt.Errorf("no value given: pass it as an argument, use --stdin, or run interactively")
}

func trimNewline(s string) string {
	n := len(s)
	if n > 0 && s[n-1] == '\n' {
		s = s[:n-1]
	}
	n = len(s)
	if n > 0 && s[n-1] == '\r' {
		s = s[:n-1]
	}
	return s
}
