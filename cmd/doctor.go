package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/arimxyer/vaultkeeper/internal/health"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	Short:   "Run read-only diagnostics against the vault, backup, audit log and key source",
	GroupID: "vault",
	Args:    cobra.NoArgs,
	RunE:    runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	vaultPath := resolvedVaultPath()
	opts := health.CheckOptions{
		VaultPath:    vaultPath,
		AuditLogPath: resolvedAuditLogPath(),
		KeyFilePath:  resolvedKeyFilePath(),
		VaultID:      vaultIDFor(vaultPath),
	}

	report := health.RunChecks(context.Background(), opts)

	for _, check := range report.Checks {
		switch check.Status {
		case health.CheckPass:
			printSuccess("[PASS] %s: %s", check.Name, check.Message)
		case health.CheckWarning:
			printWarning("[WARN] %s: %s", check.Name, check.Message)
			if check.Recommendation != "" {
				fmt.Printf("       %s\n", check.Recommendation)
			}
		case health.CheckError:
			printError("[FAIL] %s: %s", check.Name, check.Message)
			if check.Recommendation != "" {
				fmt.Printf("       %s\n", check.Recommendation)
			}
		}
	}

	fmt.Printf("\n%d passed, %d warnings, %d errors\n",
		report.Summary.Passed, report.Summary.Warnings, report.Summary.Errors)

	os.Exit(report.Summary.ExitCode)
	return nil
}
