package cmd

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/arimxyer/vaultkeeper/internal/config"
	"github.com/arimxyer/vaultkeeper/internal/crypto"
	"github.com/arimxyer/vaultkeeper/internal/keychain"
	"github.com/arimxyer/vaultkeeper/internal/storage"
	"github.com/mdp/qrterminal/v3"
	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
)

var (
	initMnemonic bool
	initKeyFile  string
	initQRFile   string
	initForce    bool
)

var initCmd = &cobra.Command{
	Use:     "init",
	Short:   "Generate a new master key and initialize an empty vault",
	GroupID: "vault",
	RunE:    runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initMnemonic, "mnemonic", false, "also print the key as a BIP-39 phrase and terminal QR code")
	initCmd.Flags().StringVar(&initKeyFile, "key-file", "", "write the new master key to this file")
	initCmd.Flags().BoolVar(&useKeychainFlag, "use-keychain", false, "store the new master key in the OS keychain")
	initCmd.Flags().StringVar(&initQRFile, "qr-file", "", "also export the master key as a PNG QR code to this path")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing vault file")
	rootCmd.AddCommand(initCmd)
}

const defaultVaultPath = ".vault/secrets.yaml"

func runInit(cmd *cobra.Command, args []string) error {
	vaultPath := resolvedVaultPath()
	checkPath := vaultPath
	if checkPath == "" {
		checkPath = defaultVaultPath
	}
	if !initForce && storage.NewStorageService(checkPath).Exists() {
		return fmt.Errorf("vault already exists at %s: pass --force to overwrite (this generates a new key; the old vault's blobs will not decrypt under it)", checkPath)
	}

	cs := crypto.NewCryptoService()
	key, err := cs.GenerateKey()
	if err != nil {
		return fmt.Errorf("failed to generate master key: %w", err)
	}
	defer crypto.ClearBytes(key)

	v, err := openVaultWithKey(key, vaultPath)
	if err != nil {
		return err
	}
	defer v.Close()
	if err := v.Save(); err != nil {
		return fmt.Errorf("failed to persist new vault: %w", err)
	}

	keyFile := initKeyFile
	if keyFile == "" {
		keyFile = resolvedKeyFilePath()
	}
	if keyFile != "" {
		if err := os.WriteFile(keyFile, key, 0600); err != nil {
			return fmt.Errorf("failed to write key file: %w", err)
		}
		printSuccess("vault initialized, master key written to %s", keyFile)
	} else {
		printSuccess("vault initialized")
		fmt.Printf("master key (base64): %s\n", base64.StdEncoding.EncodeToString(key))
	}

	if initMnemonic {
		phrase, err := crypto.EncodeMnemonic(key)
		if err != nil {
			printWarning("failed to encode mnemonic: %v", err)
		} else {
			fmt.Printf("recovery phrase: %s\n", phrase)
			qrterminal.GenerateWithConfig(base64.StdEncoding.EncodeToString(key), qrterminal.Config{
				Level:     qrterminal.M,
				Writer:    os.Stdout,
				BlackChar: qrterminal.BLACK,
				WhiteChar: qrterminal.WHITE,
			})
		}
	}

	if useKeychainFlag {
		ks := keychain.New(vaultIDFor(vaultPath))
		if err := ks.Store(key); err != nil {
			printWarning("failed to store master key in keychain: %v", err)
		} else {
			printSuccess("master key stored in OS keychain")
		}
	}

	if initQRFile != "" {
		if err := qrcode.WriteFile(base64.StdEncoding.EncodeToString(key), qrcode.Medium, 256, initQRFile); err != nil {
			printWarning("failed to export QR code: %v", err)
		} else {
			printSuccess("master key QR code written to %s", initQRFile)
		}
	}

	writeDefaultConfigIfMissing()

	return nil
}

// writeDefaultConfigIfMissing seeds a commented config file on first run
// so the user has somewhere to set persistent path defaults, without
// overwriting one that already exists.
func writeDefaultConfigIfMissing() {
	path, err := config.GetConfigPath()
	if err != nil {
		return
	}
	if _, err := os.Stat(path); err == nil {
		return
	}
	if err := os.WriteFile(path, []byte(config.GetDefaultConfigTemplate()), 0600); err != nil {
		printWarning("failed to write default config at %s: %v", path, err)
		return
	}
	printSuccess("wrote default config to %s", path)
}
