package main

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/buraq-dev/keycore/rsakey"
)

const testEnv = "0c5f3a8e-7d21-4b6a-9e14-52c0d7f8a931"

func setupEnv(t *testing.T, withRedis bool) {
	t.Helper()
	t.Setenv("BURAQ_MASTER_KEY", "cli-test-master-key")
	t.Setenv("BURAQ_LOG_LEVEL", "error")
	t.Setenv("BURAQ_TOKEN_ISSUER", "buraqctl")
	if !withRedis {
		t.Setenv("BURAQ_REDIS_ADDR", "")
		return
	}
	mr := miniredis.RunT(t)
	t.Setenv("BURAQ_REDIS_ADDR", mr.Addr())
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}

func fieldValue(t *testing.T, out, field string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if v, ok := strings.CutPrefix(line, field+": "); ok {
			return v
		}
	}
	t.Fatalf("no %q in output:\n%s", field, out)
	return ""
}

func TestKeygenHMAC(t *testing.T) {
	out := mustRun(t, "keygen", "--alg", "hs512")
	secret, err := base64.StdEncoding.DecodeString(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("decode secret: %v", err)
	}
	if len(secret) != 64 {
		t.Fatalf("expected 64 byte HS512 secret, got %d", len(secret))
	}
}

func TestKeygenRSA(t *testing.T) {
	out := mustRun(t, "keygen", "--alg", "RS256")
	if !strings.Contains(out, "BEGIN PRIVATE KEY") || !strings.Contains(out, "BEGIN PUBLIC KEY") {
		t.Fatalf("expected PEM pair, got:\n%s", out)
	}
}

func TestKeygenUnsupported(t *testing.T) {
	if _, err := run(t, "keygen", "--alg", "eddsa"); err == nil {
		t.Fatalf("expected EdDSA to be rejected")
	}
	if _, err := run(t, "keygen", "--alg", "none"); err == nil {
		t.Fatalf("expected unknown algorithm to be rejected")
	}
}

func TestEncryptDecrypt(t *testing.T) {
	setupEnv(t, false)
	resource := "b7e0e4d2-1c0a-4a55-8f3e-9d6c2b1a0f47"

	for _, mode := range [][]string{nil, {"--authenticated"}} {
		args := append([]string{"encrypt", "--resource", resource}, mode...)
		payload := strings.TrimSpace(mustRun(t, append(args, "database password")...))

		args = append([]string{"decrypt", "--resource", resource}, mode...)
		plain := strings.TrimSpace(mustRun(t, append(args, payload)...))
		if plain != "database password" {
			t.Fatalf("mode %v: expected round trip, got %q", mode, plain)
		}
	}
}

func TestEncryptRequiresMasterKey(t *testing.T) {
	t.Setenv("BURAQ_MASTER_KEY", "")
	_, err := run(t, "encrypt", "--resource", testEnv, "x")
	if err == nil {
		t.Fatalf("expected missing master key to fail")
	}
}

func TestEncryptRequiresResource(t *testing.T) {
	setupEnv(t, false)
	if _, err := run(t, "encrypt", "x"); err == nil {
		t.Fatalf("expected missing --resource to fail")
	}
	if _, err := run(t, "encrypt", "--resource", "not-a-uuid", "x"); err == nil {
		t.Fatalf("expected invalid --resource to fail")
	}
}

func TestKeyRequiresStore(t *testing.T) {
	setupEnv(t, false)
	_, err := run(t, "key", "issue", "--env", testEnv)
	if err == nil || !strings.Contains(err.Error(), "BURAQ_REDIS_ADDR") {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestKeyLifecycleAndTokens(t *testing.T) {
	setupEnv(t, true)

	out := mustRun(t, "key", "issue", "--env", testEnv, "--alg", "HS256")
	keyID := fieldValue(t, out, "id")
	if fieldValue(t, out, "algorithm") != "HS256" {
		t.Fatalf("unexpected issue output:\n%s", out)
	}

	list := mustRun(t, "key", "list", "--env", testEnv)
	if !strings.Contains(list, keyID) {
		t.Fatalf("expected %s in list:\n%s", keyID, list)
	}

	token := strings.TrimSpace(mustRun(t, "token", "sign", "--env", testEnv, "--key", keyID, "--subject", "alice"))
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected compact JWT, got %q", token)
	}

	claims := mustRun(t, "token", "verify", "--env", testEnv, "--key", keyID, token)
	if fieldValue(t, claims, "subject") != "alice" || fieldValue(t, claims, "issuer") != "buraqctl" {
		t.Fatalf("unexpected claims:\n%s", claims)
	}

	if _, err := run(t, "token", "verify", "--env", testEnv, "--key", keyID, token+"x"); err == nil {
		t.Fatalf("expected tampered token to be rejected")
	}

	mustRun(t, "key", "delete", "--env", testEnv, "--id", keyID)
	if _, err := run(t, "key", "delete", "--env", testEnv, "--id", keyID); err == nil {
		t.Fatalf("expected second delete to fail")
	}
	if _, err := run(t, "token", "sign", "--env", testEnv, "--key", keyID, "--subject", "alice"); err == nil {
		t.Fatalf("expected sign with deleted key to fail")
	}
}

func TestKeyImport(t *testing.T) {
	setupEnv(t, true)

	pair, err := rsakey.GeneratePair(rsakey.Bits2048)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	path := filepath.Join(t.TempDir(), "key.pem")
	if err := os.WriteFile(path, pair.PrivatePEM, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	out := mustRun(t, "key", "import", "--env", testEnv, "--alg", "RS256", "--file", path)
	if !strings.Contains(out, "BEGIN PUBLIC KEY") {
		t.Fatalf("expected public key in output:\n%s", out)
	}

	if _, err := run(t, "key", "import", "--env", testEnv, "--alg", "HS256", "--file", path); err == nil {
		t.Fatalf("expected HS256 import to fail")
	}
}

func TestBench(t *testing.T) {
	setupEnv(t, false)
	out := mustRun(t, "bench", "--resources", "4", "--concurrency", "4", "--ops", "40", "--metrics")
	for _, want := range []string{"secrets: ops=40 failures=0", "tokens: ops=40 failures=0", "buraq_token_issued_total 40"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}
