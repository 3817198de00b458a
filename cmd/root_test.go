package cmd

import (
	"bytes"
	"encoding/base64"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/arimxyer/vaultkeeper/internal/crypto"
)

func resetFlags() {
	vaultPathFlag = ""
	keyFilePathFlag = ""
	auditPathFlag = ""
	useKeychainFlag = false
	setStdin = false
	getClip = false
	getVersion = 0
	auditKey = ""
	auditLimit = 50
	rotateNewKeyB64 = ""
	rotateMnemonic = false
	rotateQRFile = ""
	initMnemonic = false
	initKeyFile = ""
	initQRFile = ""
}

// execCommand runs rootCmd and captures real os.Stdout, since the
// subcommands print secret values (fmt.Println) and success banners
// (printSuccess) straight to it rather than through cobra's
// OutOrStdout; warnings and errors go to stderr and are not captured.
func execCommand(args ...string) (string, error) {
	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		return "", err
	}
	os.Stdout = w

	rootCmd.SetArgs(args)
	runErr := rootCmd.Execute()

	w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String(), runErr
}

func TestCLI_SetAndGetRoundTrip(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	vaultPath := filepath.Join(dir, "secrets.yaml")

	cs := crypto.NewCryptoService()
	key, err := cs.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	keyB64 := base64.StdEncoding.EncodeToString(key)
	t.Setenv("VAULT_MASTER_KEY", keyB64)

	if _, err := execCommand("set", "DB_URL", "postgres://localhost", "--vault", vaultPath); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	resetFlags()
	out, err := execCommand("get", "DB_URL", "--vault", vaultPath)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if out != "postgres://localhost\n" {
		t.Errorf("expected the stored value, got %q", out)
	}
}

func TestCLI_GetMissingKeyFails(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	vaultPath := filepath.Join(dir, "secrets.yaml")

	cs := crypto.NewCryptoService()
	key, err := cs.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	t.Setenv("VAULT_MASTER_KEY", base64.StdEncoding.EncodeToString(key))

	if _, err := execCommand("get", "NOPE", "--vault", vaultPath); err == nil {
		t.Error("expected an error for a missing key")
	}
}
