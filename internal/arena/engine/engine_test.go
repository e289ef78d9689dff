package engine

import (
	"errors"
	mrand "math/rand"
	"testing"
	"time"

	"github.com/duskvale/werewolf-arena/internal/arena/domain"
	"github.com/duskvale/werewolf-arena/internal/arena/state"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func testEngine(t *testing.T, seed int64) *Engine {
	t.Helper()
	manager, err := state.NewManagerWith(mrand.New(mrand.NewSource(seed)), fixedClock)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	eng, err := NewWith(manager, fixedClock, func() (string, error) { return "game-1", nil })
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return eng
}

func testProfiles(n int) []domain.Profile {
	profiles := make([]domain.Profile, n)
	for i := range profiles {
		id := "agent_" + string(rune('0'+i))
		profiles[i] = domain.Profile{ID: id, URL: "http://localhost:900" + string(rune('0'+i)), Name: id}
	}
	return profiles
}

func startedGame(t *testing.T, eng *Engine, cfg domain.Config) *domain.Game {
	t.Helper()
	game, err := eng.Create(testProfiles(8), cfg)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := eng.Start(game); err != nil {
		t.Fatalf("start: %v", err)
	}
	return game
}

// mustSubmit submits an action that is expected to be accepted and returns it
// for the caller's phase action list.
func mustSubmit(t *testing.T, eng *Engine, game *domain.Game, action domain.Action) domain.Action {
	t.Helper()
	violation, err := eng.Submit(game, action)
	if err != nil {
		t.Fatalf("submit %s by %s: %v", action.Kind, action.Actor, err)
	}
	if violation != domain.ViolationNone {
		t.Fatalf("submit %s by %s rejected: %s", action.Kind, action.Actor, violation)
	}
	return action
}

// passPhase advances through the current phase with every expected actor
// passing.
func passPhase(t *testing.T, eng *Engine, game *domain.Game) AdvanceResult {
	t.Helper()
	var actions []domain.Action
	for _, actor := range eng.ExpectedActors(game) {
		actions = append(actions, mustSubmit(t, eng, game, domain.Action{Actor: actor, Kind: domain.ActionPass}))
	}
	result, err := eng.Advance(game, actions)
	if err != nil {
		t.Fatalf("advance from %s: %v", result.Previous, err)
	}
	return result
}

func TestCreate(t *testing.T) {
	eng := testEngine(t, 1)
	game, err := eng.Create(testProfiles(8), domain.DefaultConfig())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if game.Status != domain.StatusWaiting || game.Phase != domain.PhaseSetup {
		t.Fatalf("expected waiting/setup, got %s/%s", game.Status, game.Phase)
	}
	if len(game.Roles) != 8 {
		t.Fatalf("expected 8 role assignments, got %d", len(game.Roles))
	}
	for id, profile := range game.Profiles {
		if profile.Role != game.Roles[id] {
			t.Fatalf("profile role for %s does not match assignment", id)
		}
	}
}

func TestCreateDuplicateParticipant(t *testing.T) {
	eng := testEngine(t, 1)
	profiles := testProfiles(8)
	profiles[7].ID = profiles[0].ID
	if _, err := eng.Create(profiles, domain.DefaultConfig()); !errors.Is(err, ErrDuplicateParticipant) {
		t.Fatalf("expected duplicate participant error, got %v", err)
	}
}

func TestCreateInvalidConfig(t *testing.T) {
	eng := testEngine(t, 1)
	if _, err := eng.Create(testProfiles(8), domain.Config{Werewolves: 0}); err == nil {
		t.Fatal("expected config error for zero werewolves")
	}
}

func TestStart(t *testing.T) {
	eng := testEngine(t, 1)
	game, err := eng.Create(testProfiles(8), domain.DefaultConfig())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := eng.Start(game); err != nil {
		t.Fatalf("start: %v", err)
	}
	if game.Status != domain.StatusInProgress || game.Phase != domain.PhaseNightWerewolf || game.Round != 1 {
		t.Fatalf("expected in_progress/night_werewolf/round 1, got %s/%s/%d", game.Status, game.Phase, game.Round)
	}
	if err := eng.Start(game); !errors.Is(err, ErrNotWaiting) {
		t.Fatalf("expected not-waiting error on double start, got %v", err)
	}
}

func TestSubmitVoteAndRevote(t *testing.T) {
	eng := testEngine(t, 1)
	game := startedGame(t, eng, domain.DefaultConfig())
	game.Phase = domain.PhaseDayVoting

	voter := game.Alive[0]
	first, second := game.Alive[1], game.Alive[2]
	mustSubmit(t, eng, game, domain.Action{Actor: voter, Kind: domain.ActionVote, Target: first})
	mustSubmit(t, eng, game, domain.Action{Actor: voter, Kind: domain.ActionVote, Target: second})
	if game.Votes[voter] != second {
		t.Fatalf("re-vote should replace, got %q", game.Votes[voter])
	}
}

func TestSubmitRejectionUpdatesLedgerOnly(t *testing.T) {
	eng := testEngine(t, 1)
	game := startedGame(t, eng, domain.DefaultConfig())
	game.Phase = domain.PhaseDayVoting

	voter := game.Alive[0]
	violation, err := eng.Submit(game, domain.Action{Actor: voter, Kind: domain.ActionVote, Target: voter})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if violation != domain.ViolationSelfTarget {
		t.Fatalf("expected self-target violation, got %s", violation)
	}
	if len(game.Votes) != 0 {
		t.Fatal("rejected vote must not touch the vote map")
	}
	if game.Ledger.RejectionsFor(voter) != 1 {
		t.Fatalf("expected 1 rejection for %s, got %d", voter, game.Ledger.RejectionsFor(voter))
	}
}

func TestSubmitUnknownActor(t *testing.T) {
	eng := testEngine(t, 1)
	game := startedGame(t, eng, domain.DefaultConfig())
	violation, err := eng.Submit(game, domain.Action{Actor: "stranger", Kind: domain.ActionPass})
	if !errors.Is(err, domain.ErrUnknownParticipant) {
		t.Fatalf("expected unknown participant error, got %v", err)
	}
	if violation != domain.ViolationUnknownTarget {
		t.Fatalf("expected unknown_target violation, got %s", violation)
	}
	if game.Ledger.RejectionsFor("stranger") != 1 {
		t.Fatalf("failed submit must still reach the ledger, got %d rejections", game.Ledger.RejectionsFor("stranger"))
	}
}

func TestExpectedActors(t *testing.T) {
	eng := testEngine(t, 1)
	game := startedGame(t, eng, domain.DefaultConfig())

	if got := eng.ExpectedActors(game); len(got) != 2 {
		t.Fatalf("werewolf night should expect 2 wolves, got %v", got)
	}
	game.Phase = domain.PhaseDayDiscussion
	if got := eng.ExpectedActors(game); len(got) != 8 {
		t.Fatalf("day should expect everyone alive, got %v", got)
	}
	game.Phase = domain.PhaseHunterShoot
	game.PendingHunter = game.AliveWithRole(domain.RoleHunter)[0]
	if got := eng.ExpectedActors(game); len(got) != 1 || got[0] != game.PendingHunter {
		t.Fatalf("hunter shoot should expect only the obligated hunter, got %v", got)
	}
}

func TestReadyToAdvance(t *testing.T) {
	eng := testEngine(t, 1)
	game := startedGame(t, eng, domain.DefaultConfig())
	wolves := game.AliveWithRole(domain.RoleWerewolf)

	received := map[string]bool{wolves[0]: true}
	if eng.ReadyToAdvance(game, received) {
		t.Fatal("one of two wolves heard from: not ready")
	}
	received[wolves[1]] = true
	if !eng.ReadyToAdvance(game, received) {
		t.Fatal("all wolves heard from: ready")
	}
}

func TestNightKillFinalizedAtDaybreak(t *testing.T) {
	eng := testEngine(t, 1)
	game := startedGame(t, eng, domain.DefaultConfig())
	wolves := game.AliveWithRole(domain.RoleWerewolf)
	victim := game.AliveWithRole(domain.RoleVillager)[0]

	actions := []domain.Action{
		mustSubmit(t, eng, game, domain.Action{Actor: wolves[0], Kind: domain.ActionKill, Target: victim}),
		mustSubmit(t, eng, game, domain.Action{Actor: wolves[1], Kind: domain.ActionKill, Target: victim}),
	}
	result, err := eng.Advance(game, actions)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if result.Next != domain.PhaseNightWitch {
		t.Fatalf("expected witch night next, got %s", result.Next)
	}
	if !game.IsAlive(victim) {
		t.Fatal("kill must stay provisional until daybreak")
	}

	passPhase(t, eng, game)          // witch
	passPhase(t, eng, game)          // seer
	result = passPhase(t, eng, game) // doctor closes the night

	if result.Next != domain.PhaseDayDiscussion {
		t.Fatalf("expected day discussion, got %s", result.Next)
	}
	if game.IsAlive(victim) {
		t.Fatal("kill should land at daybreak")
	}
	if game.Round != 2 {
		t.Fatalf("daybreak should open round 2, got %d", game.Round)
	}
}

func TestSeerFallsOvernightInSeerDoctorGame(t *testing.T) {
	eng := testEngine(t, 1)
	cfg := domain.Config{Werewolves: 2, HasSeer: true, HasDoctor: true}
	game := startedGame(t, eng, cfg)
	wolves := game.AliveWithRole(domain.RoleWerewolf)
	seer := game.AliveWithRole(domain.RoleSeer)[0]

	actions := []domain.Action{
		mustSubmit(t, eng, game, domain.Action{Actor: wolves[0], Kind: domain.ActionKill, Target: seer}),
		mustSubmit(t, eng, game, domain.Action{Actor: wolves[1], Kind: domain.ActionKill, Target: seer}),
	}
	result, err := eng.Advance(game, actions)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if result.Next != domain.PhaseNightSeer {
		t.Fatalf("witch disabled: seer night should follow the wolves, got %s", result.Next)
	}
	if !game.IsAlive(seer) {
		t.Fatal("kill must stay provisional while the night runs")
	}

	passPhase(t, eng, game)          // the doomed seer still acts
	result = passPhase(t, eng, game) // doctor closes the night

	if result.Next != domain.PhaseDayDiscussion {
		t.Fatalf("expected day discussion, got %s", result.Next)
	}
	if len(result.Eliminated) != 1 || result.Eliminated[0] != seer {
		t.Fatalf("expected the seer to fall at daybreak, got %v", result.Eliminated)
	}
	if game.IsAlive(seer) {
		t.Fatal("seer should be eliminated")
	}
	if game.Round != 2 {
		t.Fatalf("daybreak should open round 2, got %d", game.Round)
	}
	if got := eng.ExpectedActors(game); len(got) != 7 {
		t.Fatalf("discussion should expect the 7 survivors, got %v", got)
	}
}

func TestDoctorSavesKillTarget(t *testing.T) {
	eng := testEngine(t, 1)
	game := startedGame(t, eng, domain.DefaultConfig())
	wolves := game.AliveWithRole(domain.RoleWerewolf)
	doctor := game.AliveWithRole(domain.RoleDoctor)[0]
	victim := game.AliveWithRole(domain.RoleVillager)[0]

	actions := []domain.Action{
		mustSubmit(t, eng, game, domain.Action{Actor: wolves[0], Kind: domain.ActionKill, Target: victim}),
		mustSubmit(t, eng, game, domain.Action{Actor: wolves[1], Kind: domain.ActionKill, Target: victim}),
	}
	if _, err := eng.Advance(game, actions); err != nil {
		t.Fatalf("advance: %v", err)
	}
	passPhase(t, eng, game) // witch
	passPhase(t, eng, game) // seer

	protect := mustSubmit(t, eng, game, domain.Action{Actor: doctor, Kind: domain.ActionProtect, Target: victim})
	result, err := eng.Advance(game, []domain.Action{protect})
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if len(result.Eliminated) != 0 {
		t.Fatalf("protection should cancel the kill, eliminated %v", result.Eliminated)
	}
	if !game.IsAlive(victim) {
		t.Fatal("protected target must survive the night")
	}
}

func TestHunterRetaliationAfterVote(t *testing.T) {
	eng := testEngine(t, 1)
	game := startedGame(t, eng, domain.DefaultConfig())
	hunter := game.AliveWithRole(domain.RoleHunter)[0]
	wolf := game.AliveWithRole(domain.RoleWerewolf)[0]

	game.Phase = domain.PhaseDayVoting
	var actions []domain.Action
	for _, voter := range game.Alive {
		if voter == hunter {
			continue
		}
		actions = append(actions, mustSubmit(t, eng, game, domain.Action{Actor: voter, Kind: domain.ActionVote, Target: hunter}))
	}
	result, err := eng.Advance(game, actions)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if result.Next != domain.PhaseHunterShoot {
		t.Fatalf("eliminating the hunter should divert into the shoot phase, got %s", result.Next)
	}
	if game.IsAlive(hunter) {
		t.Fatal("hunter should be eliminated before the shot")
	}

	shot := mustSubmit(t, eng, game, domain.Action{Actor: hunter, Kind: domain.ActionShoot, Target: wolf})
	result, err = eng.Advance(game, []domain.Action{shot})
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if game.IsAlive(wolf) {
		t.Fatal("shot target should be eliminated")
	}
	if result.Next != domain.PhaseNightWerewolf {
		t.Fatalf("play should resume at werewolf night, got %s", result.Next)
	}
}

// midGame builds an in-progress game with an explicit roster, bypassing
// creation, for endgame scenarios.
func midGame(roles map[string]domain.Role, phase domain.Phase) *domain.Game {
	var ids []string
	for id := range roles {
		ids = append(ids, id)
	}
	game := &domain.Game{
		ID:           "test-game",
		Status:       domain.StatusInProgress,
		Phase:        phase,
		Round:        3,
		Participants: ids,
		Alive:        append([]string(nil), ids...),
		Roles:        roles,
		Votes:        make(map[string]string),
		Ledger:       domain.NewLedger(),
		Config:       domain.DefaultConfig(),
	}
	return game
}

func TestHunterShotSwingsOutcome(t *testing.T) {
	eng := testEngine(t, 1)
	game := midGame(map[string]domain.Role{
		"wolf":     domain.RoleWerewolf,
		"hunter":   domain.RoleHunter,
		"villager": domain.RoleVillager,
	}, domain.PhaseDayVoting)

	votes := []domain.Action{
		mustSubmit(t, eng, game, domain.Action{Actor: "wolf", Kind: domain.ActionVote, Target: "hunter"}),
		mustSubmit(t, eng, game, domain.Action{Actor: "villager", Kind: domain.ActionVote, Target: "hunter"}),
	}
	result, err := eng.Advance(game, votes)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	// One wolf against one villager would be parity, but the verdict waits
	// for the hunter's shot.
	if result.Completed {
		t.Fatal("win check must defer to the pending shot")
	}

	shot := mustSubmit(t, eng, game, domain.Action{Actor: "hunter", Kind: domain.ActionShoot, Target: "wolf"})
	result, err = eng.Advance(game, []domain.Action{shot})
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !result.Completed || result.Winner != domain.WinnerVillagers {
		t.Fatalf("expected villager win, got completed=%v winner=%s", result.Completed, result.Winner)
	}
	if game.Status != domain.StatusCompleted || game.Phase != domain.PhaseGameOver {
		t.Fatalf("expected completed/game_over, got %s/%s", game.Status, game.Phase)
	}
}

func TestWerewolfParityWin(t *testing.T) {
	eng := testEngine(t, 1)
	game := midGame(map[string]domain.Role{
		"wolf":       domain.RoleWerewolf,
		"villager_a": domain.RoleVillager,
		"villager_b": domain.RoleVillager,
	}, domain.PhaseNightWerewolf)

	kill := mustSubmit(t, eng, game, domain.Action{Actor: "wolf", Kind: domain.ActionKill, Target: "villager_a"})
	// Only the werewolf night is pending before daybreak in this roster
	// because nobody holds a special role.
	game.Config = domain.Config{Werewolves: 1}

	result, err := eng.Advance(game, []domain.Action{kill})
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !result.Completed || result.Winner != domain.WinnerWerewolves {
		t.Fatalf("expected werewolf win at parity, got completed=%v winner=%s", result.Completed, result.Winner)
	}
}

func TestVillagersWinByVote(t *testing.T) {
	eng := testEngine(t, 1)
	game := midGame(map[string]domain.Role{
		"wolf":       domain.RoleWerewolf,
		"villager_a": domain.RoleVillager,
		"villager_b": domain.RoleVillager,
	}, domain.PhaseDayVoting)

	votes := []domain.Action{
		mustSubmit(t, eng, game, domain.Action{Actor: "villager_a", Kind: domain.ActionVote, Target: "wolf"}),
		mustSubmit(t, eng, game, domain.Action{Actor: "villager_b", Kind: domain.ActionVote, Target: "wolf"}),
	}
	result, err := eng.Advance(game, votes)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !result.Completed || result.Winner != domain.WinnerVillagers {
		t.Fatalf("expected villager win, got completed=%v winner=%s", result.Completed, result.Winner)
	}
}

func TestMaxRoundsCapEndsWithoutWinner(t *testing.T) {
	eng := testEngine(t, 1)
	cfg := domain.DefaultConfig()
	cfg.MaxRounds = 1
	game := startedGame(t, eng, cfg)

	// Walk round one with everyone passing; entering round two trips the cap.
	var result AdvanceResult
	for range 6 {
		result = passPhase(t, eng, game)
		if result.Completed {
			break
		}
	}
	if !result.Completed {
		t.Fatal("round cap should complete the game")
	}
	if result.Winner != domain.WinnerNone {
		t.Fatalf("capped game has no winner, got %s", result.Winner)
	}
	if game.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s", game.Status)
	}
}

func TestCancel(t *testing.T) {
	eng := testEngine(t, 1)
	game := startedGame(t, eng, domain.DefaultConfig())
	if err := eng.Cancel(game); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if game.Status != domain.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", game.Status)
	}
	if err := eng.Cancel(game); err == nil {
		t.Fatal("expected error cancelling a terminal game")
	}
}

func TestAdvanceHistoryAppended(t *testing.T) {
	eng := testEngine(t, 1)
	game := startedGame(t, eng, domain.DefaultConfig())
	passPhase(t, eng, game)
	passPhase(t, eng, game)
	if len(game.History) != 2 {
		t.Fatalf("expected 2 history records, got %d", len(game.History))
	}
	if game.History[0].Phase != domain.PhaseNightWerewolf {
		t.Fatalf("first record should be the werewolf night, got %s", game.History[0].Phase)
	}
}
