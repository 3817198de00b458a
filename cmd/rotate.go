package cmd

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/arimxyer/vaultkeeper/internal/crypto"
	"github.com/arimxyer/vaultkeeper/internal/keychain"
	"github.com/mdp/qrterminal/v3"
	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
)

var (
	rotateNewKeyB64 string
	rotateMnemonic  bool
	rotateQRFile    string
)

var rotateCmd = &cobra.Command{
	Use:     "rotate",
	Short:   "Re-encrypt every secret version under a new master key",
	GroupID: "vault",
	Args:    cobra.NoArgs,
	RunE:    runRotate,
}

func init() {
	rotateCmd.Flags().StringVar(&rotateNewKeyB64, "new-key", "", "base64-encoded new master key (default: generate one)")
	rotateCmd.Flags().BoolVar(&rotateMnemonic, "mnemonic", false, "also print the new key as a BIP-39 phrase and terminal QR code")
	rotateCmd.Flags().BoolVar(&useKeychainFlag, "use-keychain", false, "store the new master key in the OS keychain")
	rotateCmd.Flags().StringVar(&rotateQRFile, "qr-file", "", "also export the new master key as a PNG QR code to this path")
	rootCmd.AddCommand(rotateCmd)
}

func runRotate(cmd *cobra.Command, args []string) error {
	var newKey []byte
	if rotateNewKeyB64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(rotateNewKeyB64)
		if err != nil {
			return fmt.Errorf("failed to decode --new-key: %w", err)
		}
		newKey = decoded
	}

	v, err := openVault()
	if err != nil {
		return fmt.Errorf("failed to open vault: %w", err)
	}
	defer v.Close()

	rotated, err := v.Rotate(newKey)
	if err != nil {
		return fmt.Errorf("rotation failed: %w", err)
	}
	defer crypto.ClearBytes(rotated)

	printSuccess("master key rotated")
	fmt.Printf("new master key (base64): %s\n", base64.StdEncoding.EncodeToString(rotated))

	if rotateMnemonic {
		phrase, err := crypto.EncodeMnemonic(rotated)
		if err != nil {
			printWarning("failed to encode mnemonic: %v", err)
		} else {
			fmt.Printf("recovery phrase: %s\n", phrase)
			qrterminal.GenerateWithConfig(base64.StdEncoding.EncodeToString(rotated), qrterminal.Config{
				Level:     qrterminal.M,
				Writer:    os.Stdout,
				BlackChar: qrterminal.BLACK,
				WhiteChar: qrterminal.WHITE,
			})
		}
	}

	if useKeychainFlag {
		ks := keychain.New(vaultIDFor(resolvedVaultPath()))
		if err := ks.Store(rotated); err != nil {
			printWarning("failed to update master key in keychain: %v", err)
		} else {
			printSuccess("master key updated in OS keychain")
		}
	}

	if rotateQRFile != "" {
		if err := qrcode.WriteFile(base64.StdEncoding.EncodeToString(rotated), qrcode.Medium, 256, rotateQRFile); err != nil {
			printWarning("failed to export QR code: %v", err)
		} else {
			printSuccess("new master key QR code written to %s", rotateQRFile)
		}
	}

	return nil
}
