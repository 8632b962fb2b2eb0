// internal/model/donation.go
package model

import "time"

// Donation is a completed contribution record. Append-only: produced by
// the payment flow and read here only for aggregate displays.
type Donation struct {
    ID         string    `json:"id"`
    CampaignID string    `json:"campaignId"`
    Donor      string    `json:"donor"`
    Amount     float64   `json:"amount"`
    Tx         string    `json:"tx"`
    Timestamp  time.Time `json:"timestamp"`
}
