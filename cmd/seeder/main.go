//cmd/seeder/main.go
package main

import (
    "fmt"
    "log"
    "os"

    "github.com/joho/godotenv"

    "github.com/givechain/givechain-backend/internal/db"
    "github.com/givechain/givechain-backend/internal/repository"
    "github.com/givechain/givechain-backend/internal/seed"
)

func main() {
    if err := godotenv.Load(); err != nil {
        log.Println("⚠️ No .env file found, relying on OS environment variables")
    }

    var repo repository.CampaignRepositoryInterface
    if os.Getenv("STORE_BACKEND") == "postgres" {
        pool, err := db.Connect()
        if err != nil {
            log.Fatal(err)
        }
        defer pool.Close()

        pgRepo := &repository.PostgresCampaignRepository{DB: pool}
        if err := pgRepo.EnsureSchema(); err != nil {
            log.Fatalf("failed to ensure schema: %v", err)
        }
        repo = pgRepo
    } else {
        path := os.Getenv("CAMPAIGNS_FILE")
        if path == "" {
            path = "data/campaigns.json"
        }
        repo = repository.NewFileCampaignRepository(path)
    }

    existing, err := repo.ReadAll()
    if err != nil {
        log.Fatalf("failed to read store: %v", err)
    }
    if len(existing) > 0 {
        fmt.Printf("Store already has %d campaigns, nothing to do\n", len(existing))
        return
    }

    for _, c := range seed.Campaigns() {
        campaign := c
        if err := repo.Append(&campaign); err != nil {
            log.Fatalf("failed to seed campaign %s: %v", campaign.ID, err)
        }
        fmt.Printf("Seeded: %s\n", campaign.Title)
    }

    fmt.Println("Campaign seeding completed successfully!")
}
