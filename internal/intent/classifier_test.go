package intent

import (
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		text string
		role string
		want string
	}{
		{"donor donate", "I want to donate to the flood relief", RoleDonor, ActionDonate},
		{"donor support synonym", "how can I SUPPORT this campaign?", RoleDonor, ActionDonate},
		{"donor track", "show me the flow of my money", RoleDonor, ActionTrack},
		{"donor wallet", "connect my metamask please", RoleDonor, ActionConnectWallet},
		{"donor search", "find campaigns about education", RoleDonor, ActionSearch},
		{"donor default", "hello there", RoleDonor, ActionGeneral},
		{"beneficiary proof", "I need to upload a receipt", RoleBeneficiary, ActionUploadProof},
		{"beneficiary invoice keyword", "here is the invoice for supplies", RoleBeneficiary, ActionUploadProof},
		{"beneficiary withdraw", "release the next milestone", RoleBeneficiary, ActionWithdraw},
		{"beneficiary track", "show disbursement history", RoleBeneficiary, ActionTrack},
		{"unknown role falls back to donor rules", "donate now", "admin", ActionDonate},
		{"empty input", "", RoleDonor, ActionGeneral},
		{"whitespace only", "   \t\n ", RoleBeneficiary, ActionGeneral},
		{"adversarial garbage", strings.Repeat("\x00\xff{};", 1000), RoleDonor, ActionGeneral},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.text, tc.role)
			if got.Type != tc.want {
				t.Errorf("Classify(%q, %q) = %s, want %s", tc.text, tc.role, got.Type, tc.want)
			}
		})
	}
}

// First matching rule wins even when later rules would also match.
func TestClassifyFirstMatchWins(t *testing.T) {
	got := Classify("upload proof then withdraw", RoleBeneficiary)
	if got.Type != ActionUploadProof {
		t.Errorf("expected %s, got %s", ActionUploadProof, got.Type)
	}

	got = Classify("donate and track everything", RoleDonor)
	if got.Type != ActionDonate {
		t.Errorf("expected %s, got %s", ActionDonate, got.Type)
	}
}

func TestClassifyCarriesQuery(t *testing.T) {
	got := Classify("  find campaigns about water  ", RoleDonor)
	if got.Query != "find campaigns about water" {
		t.Errorf("unexpected query: %q", got.Query)
	}
}
