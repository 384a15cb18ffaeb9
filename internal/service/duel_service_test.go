package service

import (
	"encoding/json"
	"sync"
	"testing"

	"duel/internal/models"
	"duel/internal/repository"
)

// fakeStatsRepo implémente repository.StatsRepositoryInterface en mémoire
type fakeStatsRepo struct {
	stats   map[string]*models.DuelStats
	history []*models.DuelHistoryEntry
}

func newFakeStatsRepo() *fakeStatsRepo {
	return &fakeStatsRepo{stats: make(map[string]*models.DuelStats)}
}

func (f *fakeStatsRepo) GetPlayerStats(player string) (*models.DuelStats, error) {
	if stats, ok := f.stats[player]; ok {
		copied := *stats
		return &copied, nil
	}
	return &models.DuelStats{Player: player, Rating: models.DefaultRating}, nil
}

func (f *fakeStatsRepo) UpsertPlayerStats(stats *models.DuelStats) error {
	copied := *stats
	f.stats[stats.Player] = &copied
	return nil
}

func (f *fakeStatsRepo) InsertHistory(entry *models.DuelHistoryEntry) error {
	f.history = append(f.history, entry)
	return nil
}

func (f *fakeStatsRepo) GetLeaderboard(limit int) ([]*models.LeaderboardEntry, error) {
	return nil, nil
}

var _ repository.StatsRepositoryInterface = (*fakeStatsRepo)(nil)

// newTestDuelService assemble un registre de duels complet sur des fakes
func newTestDuelService(t *testing.T) (DuelServiceInterface, *fakeJournalRepo, *fakeStatsRepo) {
	t.Helper()
	cfg := testConfig()

	journalRepo := newFakeJournalRepo()
	journalSvc, err := NewJournalService(cfg, journalRepo, nil)
	if err != nil {
		t.Fatal(err)
	}
	rivalrySvc, err := NewRivalryService(cfg, newFakeRivalryRepo())
	if err != nil {
		t.Fatal(err)
	}
	statsRepo := newFakeStatsRepo()

	return NewDuelService(cfg, journalSvc, rivalrySvc, statsRepo), journalRepo, statsRepo
}

func TestCreateDuelValidation(t *testing.T) {
	svc, _, _ := newTestDuelService(t)

	tests := []struct {
		name string
		req  models.CreateDuelRequest
	}{
		{"unknown kind", models.CreateDuelRequest{Player1: "Alice", Player2: "Bob", Kind: "ladder"}},
		{"self duel", models.CreateDuelRequest{Player1: "Alice", Player2: "Alice", Kind: models.DuelKindArena}},
		{"excessive wager", models.CreateDuelRequest{Player1: "Alice", Player2: "Bob", Kind: models.DuelKindArena, Wager: 1000001}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateDuel(&tt.req); err == nil {
				t.Error("CreateDuel() should fail")
			}
		})
	}
}

func TestCreateDuelBusyPlayer(t *testing.T) {
	svc, _, _ := newTestDuelService(t)

	if _, err := svc.CreateDuel(&models.CreateDuelRequest{
		Player1: "Alice", Player2: "Bob", Kind: models.DuelKindArena,
	}); err != nil {
		t.Fatal(err)
	}

	// Un joueur engagé ne peut pas entrer dans un second duel
	if _, err := svc.CreateDuel(&models.CreateDuelRequest{
		Player1: "Alice", Player2: "Carol", Kind: models.DuelKindArena,
	}); err == nil {
		t.Error("a busy player must not enter a second duel")
	}
	if _, err := svc.CreateDuel(&models.CreateDuelRequest{
		Player1: "Carol", Player2: "Bob", Kind: models.DuelKindArena,
	}); err == nil {
		t.Error("a busy player must not enter a second duel")
	}

	if svc.LiveCount() != 1 {
		t.Errorf("LiveCount() = %d, want 1", svc.LiveCount())
	}
}

func TestEndDuelFlow(t *testing.T) {
	svc, journalRepo, statsRepo := newTestDuelService(t)

	duel, err := svc.CreateDuel(&models.CreateDuelRequest{
		Player1: "Alice", Player2: "Bob", Kind: models.DuelKindArena, Wager: 50,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.StartCombat(duel.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.HandleKill(duel.ID, "Bob", "Alice", "arena"); err != nil {
		t.Fatal(err)
	}
	if err := svc.HandleDamage(duel.ID, "Bob", "Alice", 9, "arena"); err != nil {
		t.Fatal(err)
	}

	ended, err := svc.EndDuel(duel.ID, []string{"Alice"})
	if err != nil {
		t.Fatal(err)
	}
	if ended.Winner == nil || *ended.Winner != "Alice" {
		t.Errorf("Winner = %v, want Alice", ended.Winner)
	}

	// Le duel résolu quitte le registre, les joueurs sont libérés
	if _, err := svc.GetDuel(duel.ID); err == nil {
		t.Error("an ended duel should leave the live registry")
	}
	if _, err := svc.CreateDuel(&models.CreateDuelRequest{
		Player1: "Alice", Player2: "Carol", Kind: models.DuelKindArena,
	}); err != nil {
		t.Errorf("players should be free after their duel ended: %v", err)
	}

	// Le rapport est persisté et nomme le vainqueur
	var report string
	for _, r := range journalRepo.reports {
		report = r
	}
	if report == "" {
		t.Fatal("no report persisted")
	}

	// Statistiques : victoire et rating ajustés pour le vainqueur
	aliceStats := statsRepo.stats["Alice"]
	if aliceStats == nil {
		t.Fatal("winner stats not persisted")
	}
	if aliceStats.Wins != 1 || aliceStats.Kills != 1 || aliceStats.DamageDealt != 9 {
		t.Errorf("winner stats = %+v", aliceStats)
	}
	if aliceStats.Rating != models.DefaultRating+25 {
		t.Errorf("winner rating = %d, want %d", aliceStats.Rating, models.DefaultRating+25)
	}

	bobStats := statsRepo.stats["Bob"]
	if bobStats == nil || bobStats.Losses != 1 {
		t.Errorf("loser stats = %+v", bobStats)
	}
	if bobStats.Rating != models.DefaultRating-25 {
		t.Errorf("loser rating = %d, want %d", bobStats.Rating, models.DefaultRating-25)
	}

	if len(statsRepo.history) != 1 {
		t.Fatalf("history entries = %d, want 1", len(statsRepo.history))
	}
	if statsRepo.history[0].Wager != 50 {
		t.Errorf("history wager = %d, want 50", statsRepo.history[0].Wager)
	}
}

func TestReadPathsReturnSnapshots(t *testing.T) {
	svc, _, _ := newTestDuelService(t)

	created, err := svc.CreateDuel(&models.CreateDuelRequest{
		Player1: "Alice", Player2: "Bob", Kind: models.DuelKindArena,
	})
	if err != nil {
		t.Fatal(err)
	}

	before, err := svc.GetDuel(created.ID)
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.HandleKill(created.ID, "Bob", "Alice", "arena"); err != nil {
		t.Fatal(err)
	}

	// Les lectures antérieures ne voient pas les mutations du registre
	if before.Kills["Alice"] != 0 {
		t.Error("an earlier read must not follow later registry mutations")
	}
	after, err := svc.GetDuel(created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if after.Kills["Alice"] != 1 {
		t.Errorf("fresh read Kills[Alice] = %d, want 1", after.Kills["Alice"])
	}

	// Les mutations d'une copie ne traversent pas vers le registre
	after.Kills["Alice"] = 42
	check, err := svc.GetDuelByPlayer("Alice")
	if err != nil {
		t.Fatal(err)
	}
	if check.Kills["Alice"] != 1 {
		t.Error("mutating a returned duel must not reach the registry")
	}

	for _, listed := range svc.ListDuels() {
		listed.Kills["Bob"] = 42
	}
	check, err = svc.GetDuel(created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if check.Kills["Bob"] != 0 {
		t.Error("mutating a listed duel must not reach the registry")
	}
}

func TestConcurrentReadAndKill(t *testing.T) {
	svc, _, _ := newTestDuelService(t)

	duel, err := svc.CreateDuel(&models.CreateDuelRequest{
		Player1: "Alice", Player2: "Bob", Kind: models.DuelKindArena,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Sérialisation des lectures en parallèle des kills : le registre ne doit
	// jamais exposer la map vivante pendant qu'elle est mutée sous verrou
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if err := svc.HandleKill(duel.ID, "Bob", "Alice", "arena"); err != nil {
				return
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			read, err := svc.GetDuel(duel.ID)
			if err != nil {
				return
			}
			if _, err := json.Marshal(read); err != nil {
				t.Errorf("marshal failed: %v", err)
				return
			}
		}
	}()

	wg.Wait()
}

func TestEndDuelOutsiderRoster(t *testing.T) {
	svc, _, statsRepo := newTestDuelService(t)

	duel, err := svc.CreateDuel(&models.CreateDuelRequest{
		Player1: "Alice", Player2: "Bob", Kind: models.DuelKindArena,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Un roster gagnant étranger au duel est rejeté sans rien résoudre
	if _, err := svc.EndDuel(duel.ID, []string{"Mallory"}); err == nil {
		t.Fatal("an outsider winning roster must be rejected")
	}

	if _, err := svc.GetDuel(duel.ID); err != nil {
		t.Errorf("the duel should survive a rejected end: %v", err)
	}
	if len(statsRepo.stats) != 0 {
		t.Error("no stats should be persisted for a rejected end")
	}
	if len(statsRepo.history) != 0 {
		t.Error("no history should be persisted for a rejected end")
	}

	// Une fin valide reste possible ensuite
	ended, err := svc.EndDuel(duel.ID, []string{"Bob"})
	if err != nil {
		t.Fatal(err)
	}
	if ended.Winner == nil || *ended.Winner != "Bob" {
		t.Errorf("Winner = %v, want Bob", ended.Winner)
	}
}

func TestEndDuelDraw(t *testing.T) {
	svc, _, statsRepo := newTestDuelService(t)

	duel, err := svc.CreateDuel(&models.CreateDuelRequest{
		Player1: "Alice", Player2: "Bob", Kind: models.DuelKindLocal,
	})
	if err != nil {
		t.Fatal(err)
	}

	ended, err := svc.EndDuel(duel.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !ended.Drawn {
		t.Error("ending with no winning roster should record a draw")
	}

	for _, player := range []string{"Alice", "Bob"} {
		stats := statsRepo.stats[player]
		if stats == nil || stats.Draws != 1 {
			t.Errorf("stats for %s = %+v, want one draw", player, stats)
		}
		if stats != nil && stats.Rating != models.DefaultRating {
			t.Errorf("rating must not move on a draw, got %d", stats.Rating)
		}
	}
}

func TestForfeit(t *testing.T) {
	svc, _, _ := newTestDuelService(t)

	duel, err := svc.CreateDuel(&models.CreateDuelRequest{
		Player1: "Alice", Player2: "Bob", Kind: models.DuelKindArena,
	})
	if err != nil {
		t.Fatal(err)
	}

	// L'abandon de Bob donne la victoire à l'équipe d'Alice
	ended, err := svc.Forfeit(duel.ID, "Bob")
	if err != nil {
		t.Fatal(err)
	}
	if ended.Winner == nil || *ended.Winner != "Alice" {
		t.Errorf("Winner = %v, want Alice", ended.Winner)
	}

	if _, err := svc.Forfeit(duel.ID, "Alice"); err == nil {
		t.Error("forfeiting an evicted duel should fail")
	}
}

func TestForfeitUnknownPlayer(t *testing.T) {
	svc, _, _ := newTestDuelService(t)

	duel, err := svc.CreateDuel(&models.CreateDuelRequest{
		Player1: "Alice", Player2: "Bob", Kind: models.DuelKindArena,
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Forfeit(duel.ID, "Mallory"); err == nil {
		t.Error("a non-participant cannot forfeit")
	}
	if svc.LiveCount() != 1 {
		t.Error("the duel should survive a bad forfeit")
	}
}

func TestHandleDamageValidation(t *testing.T) {
	svc, _, _ := newTestDuelService(t)

	duel, err := svc.CreateDuel(&models.CreateDuelRequest{
		Player1: "Alice", Player2: "Bob", Kind: models.DuelKindArena,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.HandleDamage(duel.ID, "Bob", "Alice", -4, "arena"); err == nil {
		t.Error("negative damage must be rejected")
	}

	if _, err := svc.EndDuel(duel.ID, []string{"Alice"}); err != nil {
		t.Fatal(err)
	}
	if err := svc.HandleDamage(duel.ID, "Bob", "Alice", 4, "arena"); err == nil {
		t.Error("damage on an evicted duel must fail")
	}
}

func TestTeamDuel(t *testing.T) {
	svc, _, _ := newTestDuelService(t)

	duel, err := svc.CreateDuel(&models.CreateDuelRequest{
		Player1: "Alice", Player2: "Bob",
		Kind:  models.DuelKindTeam,
		TeamA: []string{"Alice", "Carol"},
		TeamB: []string{"Bob", "Dave"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(duel.TeamA) != 2 || len(duel.TeamB) != 2 {
		t.Fatalf("teams = %v vs %v", duel.TeamA, duel.TeamB)
	}

	// Tous les membres sont engagés
	if _, err := svc.CreateDuel(&models.CreateDuelRequest{
		Player1: "Carol", Player2: "Eve", Kind: models.DuelKindArena,
	}); err == nil {
		t.Error("team members are busy for the duration of the duel")
	}

	ended, err := svc.EndDuel(duel.ID, []string{"Bob", "Dave"})
	if err != nil {
		t.Fatal(err)
	}
	if ended.WinningTeamIndex() != models.WinningTeamB {
		t.Errorf("WinningTeamIndex() = %d, want %d", ended.WinningTeamIndex(), models.WinningTeamB)
	}
	if ended.Winner != nil {
		t.Error("a team win has no single winner name")
	}
}

func TestTeamSizeLimit(t *testing.T) {
	svc, _, _ := newTestDuelService(t)

	if _, err := svc.CreateDuel(&models.CreateDuelRequest{
		Player1: "Alice", Player2: "Bob",
		Kind:  models.DuelKindTeam,
		TeamA: []string{"Alice", "C1", "C2", "C3", "C4"},
		TeamB: []string{"Bob"},
	}); err == nil {
		t.Error("a team beyond the configured size must be rejected")
	}
}

func TestGetDuelByPlayer(t *testing.T) {
	svc, _, _ := newTestDuelService(t)

	duel, err := svc.CreateDuel(&models.CreateDuelRequest{
		Player1: "Alice", Player2: "Bob", Kind: models.DuelKindArena,
	})
	if err != nil {
		t.Fatal(err)
	}

	found, err := svc.GetDuelByPlayer("Bob")
	if err != nil {
		t.Fatal(err)
	}
	if found.ID != duel.ID {
		t.Error("GetDuelByPlayer should resolve the player's live duel")
	}

	if _, err := svc.GetDuelByPlayer("Mallory"); err == nil {
		t.Error("an idle player has no live duel")
	}
}

func TestCountdownLifecycle(t *testing.T) {
	svc, _, _ := newTestDuelService(t)

	duel, err := svc.CreateDuel(&models.CreateDuelRequest{
		Player1: "Alice", Player2: "Bob", Kind: models.DuelKindArena,
	})
	if err != nil {
		t.Fatal(err)
	}

	remaining, err := svc.GetCountdown(duel.ID)
	if err != nil {
		t.Fatal(err)
	}
	if remaining < 0 || remaining > 5 {
		t.Errorf("countdown = %d, want within [0, 5]", remaining)
	}

	if err := svc.StartCombat(duel.ID); err != nil {
		t.Fatal(err)
	}
	remaining, err = svc.GetCountdown(duel.ID)
	if err != nil {
		t.Fatal(err)
	}
	if remaining != models.CountdownNotApplicable {
		t.Errorf("countdown after start = %d, want %d", remaining, models.CountdownNotApplicable)
	}

	// Un second démarrage est rejeté
	if err := svc.StartCombat(duel.ID); err == nil {
		t.Error("starting combat twice should fail")
	}
}
