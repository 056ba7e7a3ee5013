package keygen

import (
	"bytes"
	"encoding/pem"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
)

func TestGenerateEd25519KeyPair(t *testing.T) {
	kp, err := GenerateEd25519KeyPair()
	if err != nil {
		t.Fatalf("GenerateEd25519KeyPair failed: %v", err)
	}

	block, _ := pem.Decode(kp.PrivateKey)
	if block == nil {
		t.Fatal("private key is not valid PEM")
	}
	if block.Type != "PRIVATE KEY" {
		t.Errorf("expected PKCS#8 PRIVATE KEY block, got %q", block.Type)
	}

	if !strings.HasPrefix(string(kp.PublicKey), "ssh-ed25519 ") {
		t.Errorf("public key not in authorized_keys format: %q", kp.PublicKey)
	}

	// The public key must parse back with the ssh package.
	if _, _, _, _, err := ssh.ParseAuthorizedKey(kp.PublicKey); err != nil {
		t.Errorf("public key does not parse: %v", err)
	}
}

func TestGenerateEd25519KeyPair_Unique(t *testing.T) {
	a, err := GenerateEd25519KeyPair()
	if err != nil {
		t.Fatal(err)
	}
	b, err := GenerateEd25519KeyPair()
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a.PublicKey, b.PublicKey) {
		t.Error("two generated key pairs must differ")
	}
}
