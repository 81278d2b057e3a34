package otp

import "testing"

// RFC 4226 Appendix D test vectors.
func TestHOTPRFC4226Vectors(t *testing.T) {
	secret := []byte("12345678901234567890")
	want := []string{
		"755224", "287082", "359152", "969429", "338314",
		"254676", "287922", "162583", "399871", "520489",
	}

	for counter, expect := range want {
		got, err := HOTP(secret, uint64(counter), 6, SHA1)
		if err != nil {
			t.Fatalf("HOTP(counter=%d): %v", counter, err)
		}
		if got != expect {
			t.Errorf("HOTP(counter=%d) = %q, want %q", counter, got, expect)
		}
	}
}

// RFC 6238 Appendix B test vectors.
func TestTOTPRFC6238Vectors(t *testing.T) {
	secretSHA1 := []byte("12345678901234567890")
	secretSHA256 := []byte("12345678901234567890123456789012")
	secretSHA512 := []byte("1234567890123456789012345678901234567890123456789012345678901234")

	tests := []struct {
		t      int64
		alg    Algorithm
		secret []byte
		want   string
	}{
		{59, SHA1, secretSHA1, "94287082"},
		{59, SHA256, secretSHA256, "46119246"},
		{59, SHA512, secretSHA512, "90693936"},
		{1111111109, SHA1, secretSHA1, "07081804"},
		{1111111109, SHA256, secretSHA256, "68084774"},
		{1111111109, SHA512, secretSHA512, "25091201"},
	}

	for _, tt := range tests {
		got, err := TOTP(tt.secret, tt.t, 30, 8, tt.alg)
		if err != nil {
			t.Fatalf("TOTP(t=%d, alg=%s): %v", tt.t, tt.alg, err)
		}
		if got != tt.want {
			t.Errorf("TOTP(t=%d, alg=%s) = %q, want %q", tt.t, tt.alg, got, tt.want)
		}
	}
}

func TestTOTPSixDigitTruncation(t *testing.T) {
	secret := []byte("12345678901234567890")
	got, err := TOTP(secret, 59, 30, 6, SHA1)
	if err != nil {
		t.Fatalf("TOTP: %v", err)
	}
	if got != "287082" {
		t.Errorf("TOTP(t=59, 6 digits) = %q, want %q", got, "287082")
	}
}

func TestHOTPDigitsLength(t *testing.T) {
	secret := []byte("12345678901234567890")
	for _, alg := range []Algorithm{SHA1, SHA256, SHA512} {
		for _, digits := range []int{6, 8} {
			got, err := HOTP(secret, 42, digits, alg)
			if err != nil {
				t.Fatalf("HOTP(alg=%s, digits=%d): %v", alg, digits, err)
			}
			if len(got) != digits {
				t.Errorf("HOTP(alg=%s, digits=%d) length = %d, want %d", alg, digits, len(got), digits)
			}
			for _, r := range got {
				if r < '0' || r > '9' {
					t.Errorf("HOTP(alg=%s, digits=%d) = %q, not all ASCII digits", alg, digits, got)
				}
			}
		}
	}
}

func TestHOTPInvalidDigitsPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unsupported digit count")
		}
	}()
	_, _ = HOTP([]byte("key"), 0, 7, SHA1)
}

func TestTOTPRejectsNonPositiveStep(t *testing.T) {
	if _, err := TOTP([]byte("key"), 100, 0, 6, SHA1); err == nil {
		t.Fatal("expected error for zero step")
	}
	if _, err := TOTP([]byte("key"), 100, -1, 6, SHA1); err == nil {
		t.Fatal("expected error for negative step")
	}
}

func TestTimeRemaining(t *testing.T) {
	tests := []struct {
		t, step, want int64
	}{
		{0, 30, 30},
		{1, 30, 29},
		{29, 30, 1},
		{30, 30, 30},
		{59, 30, 1},
		{60, 30, 30},
	}
	for _, tt := range tests {
		got := TimeRemaining(tt.t, tt.step)
		if got != tt.want {
			t.Errorf("TimeRemaining(%d, %d) = %d, want %d", tt.t, tt.step, got, tt.want)
		}
	}
}

func TestHOTPDeterministic(t *testing.T) {
	secret := []byte("some-shared-secret-bytes")
	a, err := HOTP(secret, 7, 6, SHA256)
	if err != nil {
		t.Fatalf("HOTP: %v", err)
	}
	b, err := HOTP(secret, 7, 6, SHA256)
	if err != nil {
		t.Fatalf("HOTP: %v", err)
	}
	if a != b {
		t.Fatalf("identical inputs produced different codes: %q != %q", a, b)
	}
}
