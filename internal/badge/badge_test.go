package badge

import (
	"context"
	"testing"

	"updown/internal/models"
	"updown/internal/repository"
)

// stubRepo implements only what the badge service touches; anything else
// panics through the embedded nil interface.
type stubRepo struct {
	repository.Repository
	profile *models.Profile
	badges  []models.Badge
}

func (s *stubRepo) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	return s.profile, nil
}

func (s *stubRepo) InsertBadge(ctx context.Context, item *models.Badge) (bool, error) {
	for _, b := range s.badges {
		if b.UserID == item.UserID && b.Type == item.Type && b.Period == item.Period {
			return false, nil
		}
	}
	s.badges = append(s.badges, *item)
	return true, nil
}

func TestCheckAndAwardMilestones(t *testing.T) {
	repo := &stubRepo{profile: &models.Profile{UserID: "alice", LifetimePredictions: 50}}
	svc := &Service{Repo: repo}

	awarded, err := svc.CheckAndAward(context.Background(), "alice")
	if err != nil {
		t.Fatalf("award failed: %v", err)
	}
	if len(awarded) != 3 {
		t.Fatalf("awarded %d badges, want first/ten/fifty", len(awarded))
	}
	want := []string{"first_bet", "ten_bets", "fifty_bets"}
	for i, w := range want {
		if awarded[i].Type != w {
			t.Fatalf("badge %d = %s, want %s", i, awarded[i].Type, w)
		}
	}

	// Re-running awards nothing new.
	awarded, err = svc.CheckAndAward(context.Background(), "alice")
	if err != nil {
		t.Fatalf("second pass failed: %v", err)
	}
	if len(awarded) != 0 {
		t.Fatalf("second pass awarded %d badges", len(awarded))
	}
}

func TestCheckAndAwardNoProfile(t *testing.T) {
	svc := &Service{Repo: &stubRepo{}}
	awarded, err := svc.CheckAndAward(context.Background(), "ghost")
	if err != nil || awarded != nil {
		t.Fatalf("awarded=%v err=%v", awarded, err)
	}
}

func TestAwardRankBadges(t *testing.T) {
	repo := &stubRepo{}
	svc := &Service{Repo: repo}

	entries := []models.LeaderboardEntry{
		{Period: "2026-03", UserID: "alice", Rank: 1, Score: 50},
		{Period: "2026-03", UserID: "bob", Rank: 2, Score: 40},
		{Period: "2026-03", UserID: "carol", Rank: 3, Score: 30},
		{Period: "2026-03", UserID: "dave", Rank: 4, Score: 20},
	}
	if err := svc.AwardRankBadges(context.Background(), "2026-03", entries); err != nil {
		t.Fatalf("award failed: %v", err)
	}
	if len(repo.badges) != 3 {
		t.Fatalf("podium only: got %d badges", len(repo.badges))
	}
	if repo.badges[0].Type != TypeMonthlyChampion || repo.badges[0].UserID != "alice" {
		t.Fatalf("champion = %+v", repo.badges[0])
	}
	if repo.badges[2].Type != TypeMonthlyBronze || repo.badges[2].Period != "2026-03" {
		t.Fatalf("bronze = %+v", repo.badges[2])
	}
}
