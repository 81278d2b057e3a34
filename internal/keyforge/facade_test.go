package keyforge

import (
	"context"
	"errors"
	"testing"

	"github.com/i-wajidrashid/keyforge/internal/keyerr"
	"github.com/i-wajidrashid/keyforge/internal/kfconfig"
	"github.com/i-wajidrashid/keyforge/internal/otp"
	"github.com/i-wajidrashid/keyforge/internal/tokens"
)

func testVault(t *testing.T) *Vault {
	t.Helper()
	cfg := kfconfig.Default()
	cfg.DataDir = t.TempDir()
	cfg.KDFProfile = "fast"

	v, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return v
}

// TestCreateWriteReopen covers spec §8 scenario 1.
func TestCreateWriteReopen(t *testing.T) {
	ctx := context.Background()
	v := testVault(t)
	password := []byte("correct-horse-battery-staple")

	if err := v.Create(ctx, password); err != nil {
		t.Fatalf("Create: %v", err)
	}

	tok, err := v.Add(ctx, AddTokenInput{
		Issuer: "GitHub", Account: "user@example.com",
		SecretB32: "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ",
		Algorithm: otp.SHA1, Digits: 6, Kind: tokens.KindTOTP, Period: 30,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	id := tok.ID

	if err := v.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if !v.IsLocked() {
		t.Fatal("expected locked after Lock")
	}

	if err := v.Unlock(ctx, password); err != nil {
		t.Fatalf("Unlock: %v", err)
	}

	list, err := v.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Issuer != "GitHub" {
		t.Fatalf("List = %+v, want one GitHub token", list)
	}

	if _, err := v.TOTPFor(ctx, id); err != nil {
		t.Fatalf("TOTPFor: %v", err)
	}
}

// TestWrongPasswordFails covers spec §8 scenario 2.
func TestWrongPasswordFails(t *testing.T) {
	ctx := context.Background()
	v := testVault(t)

	if err := v.Create(ctx, []byte("correct-horse-battery-staple")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := v.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	err := v.Unlock(ctx, []byte("wrong-password"))
	if !errors.Is(err, keyerr.ErrWrongPasswordOrCorrupt) {
		t.Fatalf("got %v, want ErrWrongPasswordOrCorrupt", err)
	}
	if !v.IsLocked() {
		t.Fatal("expected to remain locked after failed unlock")
	}
}

// TestReorderAndDeleteScenario covers spec §8 scenario 3.
func TestReorderAndDeleteScenario(t *testing.T) {
	ctx := context.Background()
	v := testVault(t)
	if err := v.Create(ctx, []byte("pw")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	add := func(issuer string) *tokens.Token {
		tok, err := v.Add(ctx, AddTokenInput{
			Issuer: issuer, Account: "a", SecretB32: "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ",
			Algorithm: otp.SHA1, Digits: 6, Kind: tokens.KindTOTP, Period: 30,
		})
		if err != nil {
			t.Fatalf("Add(%s): %v", issuer, err)
		}
		return tok
	}
	a, b, c := add("A"), add("B"), add("C")

	if err := v.Reorder(ctx, []string{c.ID, a.ID, b.ID}); err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	list, err := v.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"C", "A", "B"}
	for i, tok := range list {
		if tok.Issuer != want[i] {
			t.Errorf("after reorder list[%d] = %s, want %s", i, tok.Issuer, want[i])
		}
	}

	if err := v.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list, err = v.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want = []string{"C", "B"}
	if len(list) != 2 {
		t.Fatalf("len(list) = %d, want 2", len(list))
	}
	for i, tok := range list {
		if tok.Issuer != want[i] {
			t.Errorf("after delete list[%d] = %s, want %s", i, tok.Issuer, want[i])
		}
	}
}

// TestEncryptedBackupRoundTrip covers spec §8 scenario 4.
func TestEncryptedBackupRoundTrip(t *testing.T) {
	ctx := context.Background()
	v := testVault(t)
	if err := v.Create(ctx, []byte("vault-password")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := v.Add(ctx, AddTokenInput{
		Issuer: "GitHub", Account: "a", SecretB32: "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ",
		Algorithm: otp.SHA1, Digits: 6, Kind: tokens.KindTOTP, Period: 30,
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	blob, err := v.ExportEncrypted(ctx, []byte("backup-password"))
	if err != nil {
		t.Fatalf("ExportEncrypted: %v", err)
	}

	v2 := testVault(t)
	if err := v2.Create(ctx, []byte("vault-password")); err != nil {
		t.Fatalf("Create (v2): %v", err)
	}

	if _, err := v2.ImportEncrypted(ctx, blob, []byte("wrong-backup-password")); err == nil {
		t.Fatal("expected failure importing with wrong backup password")
	}

	count, err := v2.ImportEncrypted(ctx, blob, []byte("backup-password"))
	if err != nil {
		t.Fatalf("ImportEncrypted: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	list, err := v2.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Issuer != "GitHub" {
		t.Fatalf("List = %+v, want one GitHub token", list)
	}
}

// TestURIImport covers spec §8 scenario 5.
func TestURIImport(t *testing.T) {
	ctx := context.Background()
	v := testVault(t)
	if err := v.Create(ctx, []byte("pw")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	uris := []string{
		"otpauth://totp/GitHub:alice@example.com?secret=JBSWY3DPEHPK3PXP&algorithm=SHA1&digits=6&issuer=GitHub&period=30",
		"otpauth://hotp/AWS:bob@example.com?secret=JBSWY3DPEHPK3PXP&algorithm=SHA1&digits=6&issuer=AWS&counter=42",
	}
	count, err := v.ImportURIs(ctx, uris)
	if err != nil {
		t.Fatalf("ImportURIs: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	list, err := v.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len(list) = %d, want 2", len(list))
	}
}

// TestHOTPProgression covers spec §8 scenario 6.
func TestHOTPProgression(t *testing.T) {
	ctx := context.Background()
	v := testVault(t)
	if err := v.Create(ctx, []byte("pw")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	tok, err := v.Add(ctx, AddTokenInput{
		Issuer: "RFC", Account: "vectors", SecretB32: "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ",
		Algorithm: otp.SHA1, Digits: 6, Kind: tokens.KindHOTP, Counter: 0,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	code1, err := v.HOTPFor(ctx, tok.ID)
	if err != nil {
		t.Fatalf("HOTPFor: %v", err)
	}
	code2, err := v.HOTPFor(ctx, tok.ID)
	if err != nil {
		t.Fatalf("HOTPFor: %v", err)
	}
	if code1 == code2 {
		t.Error("expected distinct HOTP codes across counter progression")
	}

	got, err := v.IncrementCounter(ctx, tok.ID)
	if err != nil {
		t.Fatalf("IncrementCounter: %v", err)
	}
	if got != 3 {
		t.Errorf("counter = %d, want 3", got)
	}
}

func TestOperationsFailWhenLocked(t *testing.T) {
	v := testVault(t)
	ctx := context.Background()

	if _, err := v.List(ctx); !errors.Is(err, keyerr.ErrVaultIsLocked) {
		t.Errorf("List on absent vault: got %v, want ErrVaultIsLocked", err)
	}
}

func TestUnlockAbsentVaultFails(t *testing.T) {
	v := testVault(t)
	if err := v.Unlock(context.Background(), []byte("pw")); !errors.Is(err, keyerr.ErrNoVaultFound) {
		t.Errorf("got %v, want ErrNoVaultFound", err)
	}
}

func TestPlatformInfoReportsLockState(t *testing.T) {
	ctx := context.Background()
	v := testVault(t)

	info := v.PlatformInfo()
	if info.Exists {
		t.Error("expected Exists=false before Create")
	}

	if err := v.Create(ctx, []byte("pw")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	info = v.PlatformInfo()
	if !info.Exists || info.Locked {
		t.Errorf("PlatformInfo after Create = %+v, want Exists=true Locked=false", info)
	}
}
