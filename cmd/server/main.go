// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/givechain/givechain-backend/internal/ai"
	"github.com/givechain/givechain-backend/internal/controller"
	"github.com/givechain/givechain-backend/internal/db"
	"github.com/givechain/givechain-backend/internal/disbursement"
	"github.com/givechain/givechain-backend/internal/handler"
	"github.com/givechain/givechain-backend/internal/ledger"
	"github.com/givechain/givechain-backend/internal/queue"
	"github.com/givechain/givechain-backend/internal/repository"
	"github.com/givechain/givechain-backend/internal/review"
	"github.com/givechain/givechain-backend/internal/service"
	"github.com/givechain/givechain-backend/internal/upload"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	campaignRepo := buildCampaignRepo()
	donationRepo := repository.NewFileDonationRepository(envOr("DONATIONS_FILE", "data/donations.json"))

	aiConfig := ai.DefaultConfig(os.Getenv("OPENAI_API_KEY"))
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		aiConfig.BaseURL = base
	}
	if model := os.Getenv("AI_MODEL"); model != "" {
		aiConfig.Model = model
	}
	if t := os.Getenv("AI_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			aiConfig.Timeout = d
		}
	}
	aiClient := ai.NewClient(aiConfig)

	var uploader upload.Uploader
	if endpoint := os.Getenv("IMAGE_HOST_URL"); endpoint != "" {
		uploader = upload.NewHostUploader(endpoint, os.Getenv("IMAGE_HOST_KEY"))
	}

	reviewer := &review.Engine{
		Client:   aiClient,
		Uploader: uploader,
		Model:    aiConfig.Model,
	}

	q := buildQueue()
	chain := ledger.NewMockLedger()
	queue.StartDisbursementSubscriber(q, chain)

	campaignService := &service.CampaignService{
		Repo:      campaignRepo,
		Donations: donationRepo,
		Reviewer:  reviewer,
		Chain:     chain,
	}

	campaignController := &controller.CampaignController{
		Service: campaignService,
		Gate:    disbursement.NewGate(campaignRepo),
		Ledger:  chain,
		Queue:   q,
	}

	proofHandler := &handler.ProofHandler{
		Service:  campaignService,
		Reviewer: reviewer,
	}

	chatHandler := &handler.ChatHandler{
		Client: aiClient,
		Model:  aiConfig.Model,
	}

	r := chi.NewRouter()

	// Campaign routes
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns/{id}", campaignController.GetCampaign)
	r.Post("/campaigns/{id}/donations", campaignController.RecordDonation)
	r.Post("/campaigns/{id}/milestones/{milestoneId}/withdraw", campaignController.Withdraw)

	// Proof + chat routes
	r.Post("/proof/review", proofHandler.ReviewProof)
	r.Post("/chat", chatHandler.Chat)

	log.Println("🚀 Server running on :8080")
	log.Fatal(http.ListenAndServe(":8080", r))
}

func buildCampaignRepo() repository.CampaignRepositoryInterface {
	if os.Getenv("STORE_BACKEND") == "postgres" {
		pool, err := db.Connect()
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		repo := &repository.PostgresCampaignRepository{DB: pool}
		if err := repo.EnsureSchema(); err != nil {
			log.Fatalf("failed to ensure schema: %v", err)
		}
		log.Println("✅ Using postgres campaign store")
		return repo
	}
	return repository.NewFileCampaignRepository(envOr("CAMPAIGNS_FILE", "data/campaigns.json"))
}

func buildQueue() queue.Queue {
	if url := os.Getenv("AMQP_URL"); url != "" {
		log.Println("✅ Using AMQP queue")
		return queue.NewAmqpQueue(url)
	}
	return queue.NewInMemoryQueue()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
