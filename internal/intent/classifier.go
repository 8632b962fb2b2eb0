// internal/intent/classifier.go
package intent

import "strings"

// Action types the surrounding chat UI understands.
const (
	ActionSearch        = "search"
	ActionDonate        = "donate"
	ActionTrack         = "track"
	ActionConnectWallet = "connect_wallet"
	ActionUploadProof   = "upload_proof"
	ActionWithdraw      = "withdraw"
	ActionGeneral       = "general"
)

// Roles a chat participant can hold.
const (
	RoleDonor       = "donor"
	RoleBeneficiary = "beneficiary"
)

// Action is the structured intent extracted from free text.
type Action struct {
	Type  string `json:"type"`
	Query string `json:"query,omitempty"`
}

// rule pairs trigger keywords with the action they imply. Rules are
// evaluated in order; the first keyword hit wins.
type rule struct {
	keywords []string
	action   string
}

var donorRules = []rule{
	{[]string{"donate", "support", "give", "contribute"}, ActionDonate},
	{[]string{"track", "flow", "history", "where did"}, ActionTrack},
	{[]string{"wallet", "connect", "metamask"}, ActionConnectWallet},
	{[]string{"search", "find", "look for", "browse"}, ActionSearch},
}

var beneficiaryRules = []rule{
	{[]string{"upload", "proof", "receipt", "invoice"}, ActionUploadProof},
	{[]string{"withdraw", "release", "claim"}, ActionWithdraw},
	{[]string{"track", "flow", "history"}, ActionTrack},
	{[]string{"wallet", "connect", "metamask"}, ActionConnectWallet},
}

// Classify maps free text to a structured action for the given role.
// Purely keyword-based, no AI call; any input, including empty or
// adversarial strings, yields an action.
func Classify(text, role string) Action {
	lowered := strings.ToLower(text)

	rules := donorRules
	if role == RoleBeneficiary {
		rules = beneficiaryRules
	}

	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lowered, kw) {
				return Action{Type: r.action, Query: strings.TrimSpace(text)}
			}
		}
	}
	return Action{Type: ActionGeneral, Query: strings.TrimSpace(text)}
}
