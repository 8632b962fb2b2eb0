package repository

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	appErrors "github.com/givechain/givechain-backend/internal/errors"
	"github.com/givechain/givechain-backend/internal/model"
)

func tempRepo(t *testing.T) *FileCampaignRepository {
	t.Helper()
	return NewFileCampaignRepository(filepath.Join(t.TempDir(), "campaigns.json"))
}

func sampleCampaign(id string) *model.Campaign {
	return &model.Campaign{
		ID:           id,
		Title:        "Rebuild the school",
		TargetAmount: 15000,
		Category:     model.CategoryEducation,
		CreatedAt:    time.Now().UTC(),
		Status:       model.CampaignStatusActive,
		Milestones: []model.Milestone{
			{ID: id + "-m1", Title: "Foundation", TargetAmount: 5000, Status: model.MilestoneStatusPending, ProofRequired: true},
			{ID: id + "-m2", Title: "Walls", TargetAmount: 6000, Status: model.MilestoneStatusPending, ProofRequired: true},
			{ID: id + "-m3", Title: "Roof", TargetAmount: 4000, Status: model.MilestoneStatusPending, ProofRequired: false},
		},
		Proofs: []model.Proof{},
	}
}

func TestReadAllMissingFile(t *testing.T) {
	repo := tempRepo(t)
	campaigns, err := repo.ReadAll()
	if err != nil {
		t.Fatalf("expected no error for missing document, got %v", err)
	}
	if len(campaigns) != 0 {
		t.Fatalf("expected empty list, got %d campaigns", len(campaigns))
	}
}

func TestAppendInsertsAtFront(t *testing.T) {
	repo := tempRepo(t)
	if err := repo.Append(sampleCampaign("c1")); err != nil {
		t.Fatal(err)
	}
	if err := repo.Append(sampleCampaign("c2")); err != nil {
		t.Fatal(err)
	}

	campaigns, err := repo.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(campaigns) != 2 {
		t.Fatalf("expected 2 campaigns, got %d", len(campaigns))
	}
	if campaigns[0].ID != "c2" {
		t.Errorf("expected most recent campaign first, got %s", campaigns[0].ID)
	}
}

func TestUpdateAppliesPartialFields(t *testing.T) {
	repo := tempRepo(t)
	if err := repo.Append(sampleCampaign("c1")); err != nil {
		t.Fatal(err)
	}

	raised := 2500.0
	donors := 12
	updated, err := repo.Update("c1", CampaignPatch{RaisedAmount: &raised, DonorCount: &donors})
	if err != nil {
		t.Fatal(err)
	}
	if updated.RaisedAmount != 2500 || updated.DonorCount != 12 {
		t.Errorf("patch not applied: %+v", updated)
	}
	if updated.Title != "Rebuild the school" {
		t.Errorf("untouched field changed: %s", updated.Title)
	}
}

func TestUpdateNotFoundLeavesCollectionUnchanged(t *testing.T) {
	repo := tempRepo(t)
	if err := repo.Append(sampleCampaign("c1")); err != nil {
		t.Fatal(err)
	}

	raised := 99.0
	_, err := repo.Update("missing", CampaignPatch{RaisedAmount: &raised})
	var notFound *appErrors.ErrCampaignNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrCampaignNotFound, got %v", err)
	}

	campaigns, _ := repo.ReadAll()
	if len(campaigns) != 1 || campaigns[0].RaisedAmount != 0 {
		t.Errorf("collection changed by failed update: %+v", campaigns)
	}
}

func TestRemove(t *testing.T) {
	repo := tempRepo(t)
	if err := repo.Append(sampleCampaign("c1")); err != nil {
		t.Fatal(err)
	}

	removed, err := repo.Remove("c1")
	if err != nil || !removed {
		t.Fatalf("expected removal, got removed=%v err=%v", removed, err)
	}
	removed, err = repo.Remove("c1")
	if err != nil || removed {
		t.Fatalf("expected no-op removal, got removed=%v err=%v", removed, err)
	}
}

func TestGetByID(t *testing.T) {
	repo := tempRepo(t)
	if err := repo.Append(sampleCampaign("c1")); err != nil {
		t.Fatal(err)
	}

	c, err := repo.GetByID("c1")
	if err != nil {
		t.Fatal(err)
	}
	if c.ID != "c1" {
		t.Errorf("wrong campaign returned: %s", c.ID)
	}

	if _, err := repo.GetByID("nope"); err == nil {
		t.Error("expected not-found error")
	}
}

// Two handles on the same path have independent mutexes, like two
// processes sharing the document. Whole-document read-modify-write means
// the later writer can discard the other's append. This test pins down
// that last-writer-wins is the known behavior of this store, not a bug
// to paper over elsewhere.
func TestSeparateHandlesCanLoseAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campaigns.json")
	repoA := NewFileCampaignRepository(path)
	repoB := NewFileCampaignRepository(path)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := repoA.Append(sampleCampaign("from-a")); err != nil {
			t.Error(err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := repoB.Append(sampleCampaign("from-b")); err != nil {
			t.Error(err)
		}
	}()
	wg.Wait()

	campaigns, err := repoA.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	// Both appends reported success but either 1 or 2 campaigns may have
	// survived the race.
	if len(campaigns) < 1 || len(campaigns) > 2 {
		t.Fatalf("expected 1 or 2 campaigns, got %d", len(campaigns))
	}
	if len(campaigns) == 1 {
		t.Logf("lost update observed (documented whole-document race): only %s survived", campaigns[0].ID)
	}
}
