package samcard

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSecureCardData_Describe(t *testing.T) {
	d := sampleData()
	want := strings.Join([]string{
		"=== SAM CARD READ ===",
		"[1] Session: 0b8e7f0e-3c52-4f0a-9d8e-2f1b6c1d9a01 (authenticated)",
		`    + Application: A000000077AB01 "SAM ID"`,
		"[2] Cardholder:",
		"    + Card ID:    SAM-0042-7781",
		"    + Surname:    OKAFOR",
		"    + First name: AMINA",
		"    - cardId: SAM-0042-7781",
		"    - firstName: AMINA",
		"    - name: OKAFOR AMINA",
		"    - surname: OKAFOR",
		"[3] Face:",
		"    + Format: image/jpeg",
		"    + Length: 12 bytes",
		"    + SHA3-256: " + d.FaceDigest(),
		"[4] Fingerprints:",
		"    + Finger 1: ISO_19794_2, 120 bytes, SHA3-256 " + d.Fingerprints[0].Digest(),
	}, "\n")

	if diff := cmp.Diff(want, d.Describe()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestSecureCardData_DescribeEmpty(t *testing.T) {
	d := &SecureCardData{SessionID: "s-1", IsAuthenticated: true, Fingerprints: []FingerprintRecord{}}
	want := strings.Join([]string{
		"=== SAM CARD READ ===",
		"[1] Session: s-1 (authenticated)",
		"[2] Cardholder:",
		"    + Card ID:    (none)",
		"    + Surname:    (none)",
		"    + First name: (none)",
		"[3] Face:",
		"    - No face image found.",
		"[4] Fingerprints:",
		"    - No fingerprint template found.",
	}, "\n")

	if diff := cmp.Diff(want, d.Describe()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestSecureCardData_DescribeFailure(t *testing.T) {
	want := strings.Join([]string{
		"=== SAM CARD READ ===",
		"[1] Session: (none) (NOT authenticated)",
		"    + Error: SAM application not found",
	}, "\n")

	if diff := cmp.Diff(want, Failed(ErrApplicationNotFound).Describe()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestSecureCardData_Lookups(t *testing.T) {
	d := sampleData()
	if _, ok := d.Fingerprint(1); !ok {
		t.Error("finger 1 missing")
	}
	if _, ok := d.Fingerprint(2); ok {
		t.Error("finger 2 should be absent")
	}
	if got := (&SecureCardData{}).FaceDigest(); got != "" {
		t.Errorf("FaceDigest without image = %q", got)
	}
}
