package vault

import (
	"encoding/base64"
	"os"
	"strings"
	"testing"
)

func base64Std(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %q: %v", path, err)
	}
}

// tamperYAMLCiphertext flips the first character of the last
// "ciphertext:" value in the vault file, simulating on-disk corruption
// of the most recently written version.
func tamperYAMLCiphertext(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read vault file: %v", err)
	}
	text := string(data)
	idx := strings.LastIndex(text, "ciphertext: ")
	if idx == -1 {
		t.Fatal("expected to find a ciphertext field to tamper with")
	}
	valueStart := idx + len("ciphertext: ")
	flipped := flipFirstBase64Char(text[valueStart])
	tampered := text[:valueStart] + string(flipped) + text[valueStart+1:]
	writeFile(t, path, tampered)
}

func flipFirstBase64Char(c byte) byte {
	if c == 'A' {
		return 'B'
	}
	return 'A'
}
