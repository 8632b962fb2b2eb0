// internal/seed/seed.go
package seed

import (
    "time"

    "github.com/givechain/givechain-backend/internal/model"
)

// Campaigns returns the demo dataset shown when the store is empty.
// Milestone amounts sum to each campaign target by construction.
func Campaigns() []model.Campaign {
    created := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

    return []model.Campaign{
        {
            ID:              "camp-flood-relief",
            Title:           "Flood Relief for Riverside District",
            Description:     "Emergency shelter, clean water and medical supplies for families displaced by the August floods.",
            Beneficiary:     "0x8f3Cf7ad23Cd3CaDbD9735AFf958023239c6A063",
            BeneficiaryName: "Riverside Relief Committee",
            TargetAmount:    15000,
            RaisedAmount:    9200,
            DonorCount:      143,
            Category:        model.CategoryDisaster,
            CreatedAt:       created,
            Deadline:        created.AddDate(0, 3, 0),
            Status:          model.CampaignStatusActive,
            Milestones: []model.Milestone{
                {ID: "ms-flood-1", Title: "Emergency shelter kits", TargetAmount: 5000, ReleasedAmount: 5000, Status: model.MilestoneStatusCompleted, ProofRequired: true},
                {ID: "ms-flood-2", Title: "Water purification units", TargetAmount: 6000, ReleasedAmount: 2000, Status: model.MilestoneStatusInProgress, ProofRequired: true},
                {ID: "ms-flood-3", Title: "Mobile medical clinic", TargetAmount: 4000, Status: model.MilestoneStatusPending, ProofRequired: true},
            },
            Proofs: []model.Proof{},
        },
        {
            ID:              "camp-school-rebuild",
            Title:           "Rebuild Hilltop Primary School",
            Description:     "Reconstruction of six classrooms and a library destroyed in last year's earthquake.",
            Beneficiary:     "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
            BeneficiaryName: "Hilltop Education Trust",
            TargetAmount:    24000,
            RaisedAmount:    4100,
            DonorCount:      58,
            Category:        model.CategoryEducation,
            CreatedAt:       created.AddDate(0, 0, 10),
            Deadline:        created.AddDate(0, 6, 0),
            Status:          model.CampaignStatusActive,
            Milestones: []model.Milestone{
                {ID: "ms-school-1", Title: "Site clearing and foundation", TargetAmount: 8000, Status: model.MilestoneStatusPending, ProofRequired: true},
                {ID: "ms-school-2", Title: "Classroom construction", TargetAmount: 12000, Status: model.MilestoneStatusPending, ProofRequired: true},
                {ID: "ms-school-3", Title: "Library books and furniture", TargetAmount: 4000, Status: model.MilestoneStatusPending, ProofRequired: false},
            },
            Proofs: []model.Proof{},
        },
        {
            ID:              "camp-clinic-equipment",
            Title:           "Dialysis Machines for Lakeside Clinic",
            Description:     "Two dialysis machines and a year of consumables for the only clinic serving the lakeside villages.",
            Beneficiary:     "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619",
            BeneficiaryName: "Lakeside Health Foundation",
            TargetAmount:    18000,
            RaisedAmount:    18000,
            DonorCount:      321,
            Category:        model.CategoryMedical,
            CreatedAt:       created.AddDate(0, -2, 0),
            Deadline:        created.AddDate(0, 1, 0),
            Status:          model.CampaignStatusCompleted,
            Milestones: []model.Milestone{
                {ID: "ms-clinic-1", Title: "First dialysis machine", TargetAmount: 7500, ReleasedAmount: 7500, Status: model.MilestoneStatusCompleted, ProofRequired: true},
                {ID: "ms-clinic-2", Title: "Second dialysis machine", TargetAmount: 7500, Status: model.MilestoneStatusPending, ProofRequired: true},
                {ID: "ms-clinic-3", Title: "Consumables stock", TargetAmount: 3000, Status: model.MilestoneStatusPending, ProofRequired: false},
            },
            Proofs: []model.Proof{},
        },
    }
}
