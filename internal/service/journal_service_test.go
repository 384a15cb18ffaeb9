package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"duel/internal/config"
	"duel/internal/models"
	"duel/internal/repository"
)

// fakeJournalRepo implémente repository.JournalRepositoryInterface en mémoire
type fakeJournalRepo struct {
	reports map[string]string
	mapping map[string]string
	oldIDs  []string

	saveMappingErr error
	saveReportErr  error
	mappingSaves   int
}

func newFakeJournalRepo() *fakeJournalRepo {
	return &fakeJournalRepo{
		reports: make(map[string]string),
		mapping: make(map[string]string),
	}
}

func (f *fakeJournalRepo) SaveReport(journalID, report string) error {
	if f.saveReportErr != nil {
		return f.saveReportErr
	}
	f.reports[journalID] = report
	return nil
}

func (f *fakeJournalRepo) LoadReport(journalID string) (string, error) {
	report, ok := f.reports[journalID]
	if !ok {
		return "", fmt.Errorf("report not found: %s", journalID)
	}
	return report, nil
}

func (f *fakeJournalRepo) DeleteReportsOlderThan(cutoff time.Time) ([]string, error) {
	for _, id := range f.oldIDs {
		delete(f.reports, id)
	}
	return f.oldIDs, nil
}

func (f *fakeJournalRepo) SaveMapping(mapping map[string]string) error {
	if f.saveMappingErr != nil {
		return f.saveMappingErr
	}
	f.mappingSaves++
	f.mapping = make(map[string]string, len(mapping))
	for k, v := range mapping {
		f.mapping[k] = v
	}
	return nil
}

func (f *fakeJournalRepo) LoadMapping() (map[string]string, error) {
	return f.mapping, nil
}

var _ repository.JournalRepositoryInterface = (*fakeJournalRepo)(nil)

func testConfig() *config.Config {
	return &config.Config{
		Duel: config.DuelConfig{
			CountdownSeconds: 5,
			TimeLimit:        300 * time.Second,
			MaxWager:         100000,
			MaxTeamSize:      4,
			CleanupInterval:  time.Minute,
		},
		Journal: config.JournalConfig{
			Path:          "data/journals",
			RetentionDays: 30,
		},
		Rivalry: config.RivalryConfig{
			Path:      "data/rivalries",
			Threshold: 5,
		},
	}
}

func newTestDuel(t *testing.T, player1, player2 string) *models.Duel {
	t.Helper()
	duel, err := models.NewDuel(player1, player2, models.DuelKindArena, 0, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	return duel
}

func TestStartAndStopLogging(t *testing.T) {
	repo := newFakeJournalRepo()
	svc, err := NewJournalService(testConfig(), repo, nil)
	if err != nil {
		t.Fatal(err)
	}

	duel := newTestDuel(t, "Alice", "Bob")
	journalID, err := svc.StartLogging(duel)
	if err != nil {
		t.Fatal(err)
	}

	if got := svc.GetShortID(journalID); got != "1" {
		t.Errorf("GetShortID() = %s, want 1", got)
	}
	if svc.LiveCount() != 1 {
		t.Errorf("LiveCount() = %d, want 1", svc.LiveCount())
	}
	if repo.mappingSaves != 1 {
		t.Errorf("mapping saves = %d, want 1", repo.mappingSaves)
	}

	svc.LogKill(journalID, "Bob", "Alice", "arena")

	if !svc.StopLogging(journalID, []string{"Alice"}) {
		t.Fatal("StopLogging() = false, want true")
	}
	if svc.LiveCount() != 0 {
		t.Errorf("LiveCount() after stop = %d, want 0", svc.LiveCount())
	}

	report, err := svc.GetReportByShortID("1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(report.Report, "Match won by Alice") {
		t.Errorf("report should name the winner:\n%s", report.Report)
	}
	if !strings.Contains(report.Report, "Bob was eliminated by Alice (arena)") {
		t.Errorf("report should contain the kill event:\n%s", report.Report)
	}
}

func TestStopLoggingUnknownJournal(t *testing.T) {
	repo := newFakeJournalRepo()
	svc, err := NewJournalService(testConfig(), repo, nil)
	if err != nil {
		t.Fatal(err)
	}

	if svc.StopLogging("no-such-journal", nil) {
		t.Error("StopLogging() on unknown journal should return false")
	}
}

func TestStartLoggingMappingFailure(t *testing.T) {
	repo := newFakeJournalRepo()
	svc, err := NewJournalService(testConfig(), repo, nil)
	if err != nil {
		t.Fatal(err)
	}

	repo.saveMappingErr = fmt.Errorf("disk full")

	duel := newTestDuel(t, "Alice", "Bob")
	journalID, err := svc.StartLogging(duel)
	if err == nil {
		t.Fatal("StartLogging() should fail when the mapping cannot be persisted")
	}
	if journalID != "" {
		t.Errorf("journalID = %s, want empty on failure", journalID)
	}
	if svc.LiveCount() != 0 {
		t.Errorf("LiveCount() = %d, want 0 after failed start", svc.LiveCount())
	}

	// Le registre redevient utilisable dès que la persistance revient
	repo.saveMappingErr = nil
	if _, err := svc.StartLogging(duel); err != nil {
		t.Fatalf("StartLogging() after recovery failed: %v", err)
	}
}

func TestShortIDRecovery(t *testing.T) {
	repo := newFakeJournalRepo()
	repo.mapping = map[string]string{
		"7":    "journal-seven",
		"3":    "journal-three",
		"junk": "journal-bad",
		"-2":   "journal-negative",
	}

	svc, err := NewJournalService(testConfig(), repo, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Les entrées valides sont rechargées, les malformées ignorées
	if got := svc.GetShortID("journal-seven"); got != "7" {
		t.Errorf("GetShortID(journal-seven) = %s, want 7", got)
	}
	if got := svc.GetShortID("journal-bad"); got != "" {
		t.Errorf("GetShortID(journal-bad) = %s, want empty", got)
	}

	// Le compteur reprend après le plus grand short-id valide
	duel := newTestDuel(t, "Alice", "Bob")
	journalID, err := svc.StartLogging(duel)
	if err != nil {
		t.Fatal(err)
	}
	if got := svc.GetShortID(journalID); got != "8" {
		t.Errorf("next short id = %s, want 8", got)
	}
}

func TestCleanupOldLogs(t *testing.T) {
	repo := newFakeJournalRepo()
	repo.mapping = map[string]string{
		"1": "journal-old",
		"2": "journal-recent",
	}
	repo.reports["journal-old"] = "old report"
	repo.reports["journal-recent"] = "recent report"
	repo.oldIDs = []string{"journal-old"}

	svc, err := NewJournalService(testConfig(), repo, nil)
	if err != nil {
		t.Fatal(err)
	}

	removed, err := svc.CleanupOldLogs()
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	// Une seule réécriture de la correspondance, quel que soit le volume retiré
	if repo.mappingSaves != 1 {
		t.Errorf("mapping saves = %d, want 1", repo.mappingSaves)
	}
	if _, ok := repo.mapping["1"]; ok {
		t.Error("short id of a swept report should leave the mapping")
	}
	if _, ok := repo.mapping["2"]; !ok {
		t.Error("short id of a kept report should stay in the mapping")
	}

	if _, err := svc.GetReportByShortID("1"); err == nil {
		t.Error("swept report should no longer resolve")
	}
	if _, err := svc.GetReportByShortID("2"); err != nil {
		t.Errorf("kept report should still resolve: %v", err)
	}
}

func TestCleanupNothingToRemove(t *testing.T) {
	repo := newFakeJournalRepo()
	svc, err := NewJournalService(testConfig(), repo, nil)
	if err != nil {
		t.Fatal(err)
	}

	removed, err := svc.CleanupOldLogs()
	if err != nil {
		t.Fatal(err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
	if repo.mappingSaves != 0 {
		t.Error("an empty sweep must not rewrite the mapping")
	}
}

func TestFinishAllLogs(t *testing.T) {
	repo := newFakeJournalRepo()
	svc, err := NewJournalService(testConfig(), repo, nil)
	if err != nil {
		t.Fatal(err)
	}

	first, err := svc.StartLogging(newTestDuel(t, "Alice", "Bob"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.StartLogging(newTestDuel(t, "Carol", "Dave"))
	if err != nil {
		t.Fatal(err)
	}

	svc.FinishAllLogs()

	if svc.LiveCount() != 0 {
		t.Errorf("LiveCount() = %d, want 0 after drain", svc.LiveCount())
	}
	for _, journalID := range []string{first, second} {
		report, ok := repo.reports[journalID]
		if !ok {
			t.Errorf("journal %s should have been persisted on drain", journalID)
			continue
		}
		if !strings.Contains(report, "Match ended in a draw") {
			t.Errorf("drained journal should close as undecided:\n%s", report)
		}
	}
}

func TestLogDamageThreshold(t *testing.T) {
	repo := newFakeJournalRepo()
	svc, err := NewJournalService(testConfig(), repo, nil)
	if err != nil {
		t.Fatal(err)
	}

	journalID, err := svc.StartLogging(newTestDuel(t, "Alice", "Bob"))
	if err != nil {
		t.Fatal(err)
	}

	// Sous le seuil : agrégats mis à jour, pas d'événement
	svc.LogDamage(journalID, "Bob", "Alice", models.SignificantDamageThreshold-1, "arena")
	// Au seuil : agrégats et événement
	svc.LogDamage(journalID, "Bob", "Alice", models.SignificantDamageThreshold, "arena")

	svc.StopLogging(journalID, nil)

	report := repo.reports[journalID]
	if !strings.Contains(report, fmt.Sprintf("Alice: 0 kills, %d damage dealt", 2*models.SignificantDamageThreshold-1)) {
		t.Errorf("all damage should be aggregated:\n%s", report)
	}
	if strings.Contains(report, fmt.Sprintf("took %d damage", models.SignificantDamageThreshold-1)) {
		t.Errorf("sub-threshold hits must not appear as events:\n%s", report)
	}
	if !strings.Contains(report, fmt.Sprintf("Bob took %d damage from Alice", models.SignificantDamageThreshold)) {
		t.Errorf("threshold hits should appear as events:\n%s", report)
	}
}

func TestLogKillUnknownVictimIgnored(t *testing.T) {
	repo := newFakeJournalRepo()
	svc, err := NewJournalService(testConfig(), repo, nil)
	if err != nil {
		t.Fatal(err)
	}

	journalID, err := svc.StartLogging(newTestDuel(t, "Alice", "Bob"))
	if err != nil {
		t.Fatal(err)
	}

	svc.LogKill(journalID, "Mallory", "Alice", "arena")
	svc.StopLogging(journalID, nil)

	if strings.Contains(repo.reports[journalID], "Mallory") {
		t.Error("a kill on a non-participant must not be journaled")
	}
}
