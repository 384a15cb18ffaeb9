package service

import (
	"fmt"
	"testing"

	"duel/internal/models"
	"duel/internal/repository"
)

// fakeRivalryRepo implémente repository.RivalryRepositoryInterface en mémoire
type fakeRivalryRepo struct {
	entries map[string]*models.RivalryEntry
	saves   int
	saveErr error
}

func newFakeRivalryRepo() *fakeRivalryRepo {
	return &fakeRivalryRepo{entries: make(map[string]*models.RivalryEntry)}
}

func (f *fakeRivalryRepo) Save(entries map[string]*models.RivalryEntry) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.entries = entries
	return nil
}

func (f *fakeRivalryRepo) Load() (map[string]*models.RivalryEntry, error) {
	return f.entries, nil
}

var _ repository.RivalryRepositoryInterface = (*fakeRivalryRepo)(nil)

func TestRecordOutcomeThresholdCrossedOnce(t *testing.T) {
	cfg := testConfig()
	svc, err := NewRivalryService(cfg, newFakeRivalryRepo())
	if err != nil {
		t.Fatal(err)
	}

	// Le seuil n'est franchi qu'une seule fois, au duel qui l'atteint
	for i := 1; i <= cfg.Rivalry.Threshold+2; i++ {
		winner := "Alice"
		if i%2 == 0 {
			winner = "Bob"
		}

		becameRival, err := svc.RecordOutcome("Alice", "Bob", winner)
		if err != nil {
			t.Fatal(err)
		}

		want := i == cfg.Rivalry.Threshold
		if becameRival != want {
			t.Errorf("duel %d: becameRival = %v, want %v", i, becameRival, want)
		}
		if got := svc.IsRivalry("Alice", "Bob"); got != (i >= cfg.Rivalry.Threshold) {
			t.Errorf("duel %d: IsRivalry = %v", i, got)
		}
	}
}

func TestRecordOutcomeUndecidedDoesNotAdvance(t *testing.T) {
	cfg := testConfig()
	svc, err := NewRivalryService(cfg, newFakeRivalryRepo())
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < cfg.Rivalry.Threshold-1; i++ {
		if _, err := svc.RecordOutcome("Alice", "Bob", "Alice"); err != nil {
			t.Fatal(err)
		}
	}

	// Un match indéterminé ne compte pas pour le seuil
	becameRival, err := svc.RecordOutcome("Alice", "Bob", "")
	if err != nil {
		t.Fatal(err)
	}
	if becameRival {
		t.Error("an undecided outcome must not cross the threshold")
	}
	if svc.GetTotalDuels("Alice", "Bob") != cfg.Rivalry.Threshold-1 {
		t.Errorf("TotalDuels = %d, want %d", svc.GetTotalDuels("Alice", "Bob"), cfg.Rivalry.Threshold-1)
	}

	// Le duel décisif suivant franchit le seuil
	becameRival, err = svc.RecordOutcome("Bob", "Alice", "Bob")
	if err != nil {
		t.Fatal(err)
	}
	if !becameRival {
		t.Error("the deciding duel should cross the threshold")
	}
}

func TestRecordOutcomeValidation(t *testing.T) {
	svc, err := NewRivalryService(testConfig(), newFakeRivalryRepo())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		playerA string
		playerB string
	}{
		{"empty first player", "", "Bob"},
		{"empty second player", "Alice", ""},
		{"same player", "Alice", "Alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.RecordOutcome(tt.playerA, tt.playerB, tt.playerA); err == nil {
				t.Error("invalid pair should be rejected")
			}
		})
	}
}

func TestRecordOutcomeSavesOnlyOnChange(t *testing.T) {
	repo := newFakeRivalryRepo()
	svc, err := NewRivalryService(testConfig(), repo)
	if err != nil {
		t.Fatal(err)
	}

	// Première rencontre : création de l'entrée, écriture
	if _, err := svc.RecordOutcome("Alice", "Bob", "Alice"); err != nil {
		t.Fatal(err)
	}
	if repo.saves != 1 {
		t.Fatalf("saves = %d, want 1", repo.saves)
	}

	// Match indéterminé sur une entrée existante : rien ne change, pas d'écriture
	if _, err := svc.RecordOutcome("Alice", "Bob", ""); err != nil {
		t.Fatal(err)
	}
	if repo.saves != 1 {
		t.Errorf("saves = %d, want 1 after no-op outcome", repo.saves)
	}

	if _, err := svc.RecordOutcome("Alice", "Bob", "Bob"); err != nil {
		t.Fatal(err)
	}
	if repo.saves != 2 {
		t.Errorf("saves = %d, want 2 after decided outcome", repo.saves)
	}
}

func TestRecordOutcomePersistFailureIsNotFatal(t *testing.T) {
	repo := newFakeRivalryRepo()
	repo.saveErr = fmt.Errorf("disk full")

	svc, err := NewRivalryService(testConfig(), repo)
	if err != nil {
		t.Fatal(err)
	}

	// L'état en mémoire fait foi : l'échec d'écriture n'empêche pas le suivi
	if _, err := svc.RecordOutcome("Alice", "Bob", "Alice"); err != nil {
		t.Fatalf("RecordOutcome() should not fail on persistence error: %v", err)
	}
	if svc.GetWins("Alice", "Bob") != 1 {
		t.Errorf("GetWins = %d, want 1", svc.GetWins("Alice", "Bob"))
	}
}

func TestRivalrySymmetry(t *testing.T) {
	cfg := testConfig()
	svc, err := NewRivalryService(cfg, newFakeRivalryRepo())
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < cfg.Rivalry.Threshold; i++ {
		playerA, playerB := "Alice", "Bob"
		if i%2 == 1 {
			playerA, playerB = playerB, playerA
		}
		if _, err := svc.RecordOutcome(playerA, playerB, "Alice"); err != nil {
			t.Fatal(err)
		}
	}

	if !svc.IsRivalry("Alice", "Bob") || !svc.IsRivalry("Bob", "Alice") {
		t.Error("IsRivalry must be symmetric")
	}
	if svc.GetWins("Alice", "Bob") != cfg.Rivalry.Threshold {
		t.Errorf("GetWins(Alice) = %d, want %d", svc.GetWins("Alice", "Bob"), cfg.Rivalry.Threshold)
	}
	if svc.GetWins("Bob", "Alice") != 0 {
		t.Errorf("GetWins(Bob) = %d, want 0", svc.GetWins("Bob", "Alice"))
	}
	if svc.GetLastWinner("Bob", "Alice") != "Alice" {
		t.Errorf("GetLastWinner = %s, want Alice", svc.GetLastWinner("Bob", "Alice"))
	}
}

func TestGetPlayerRivalries(t *testing.T) {
	cfg := testConfig()
	svc, err := NewRivalryService(cfg, newFakeRivalryRepo())
	if err != nil {
		t.Fatal(err)
	}

	// Alice-Bob atteint le seuil, Alice-Carol reste en dessous
	for i := 0; i < cfg.Rivalry.Threshold; i++ {
		if _, err := svc.RecordOutcome("Alice", "Bob", "Bob"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.RecordOutcome("Alice", "Carol", "Alice"); err != nil {
		t.Fatal(err)
	}

	rivalries := svc.GetPlayerRivalries("Alice")
	if len(rivalries) != 1 {
		t.Fatalf("rivalries = %d, want 1", len(rivalries))
	}
	if rivalries[0].PlayerA != "Alice" || rivalries[0].PlayerB != "Bob" {
		t.Errorf("unexpected rivalry pair: %s vs %s", rivalries[0].PlayerA, rivalries[0].PlayerB)
	}
	if !rivalries[0].IsRivalry {
		t.Error("returned rivalry should be flagged as active")
	}

	summary := svc.GetSummary("Alice", "Carol")
	if summary.IsRivalry {
		t.Error("a pair below the threshold is not a rivalry")
	}
	if summary.TotalDuels != 1 {
		t.Errorf("TotalDuels = %d, want 1", summary.TotalDuels)
	}
}
