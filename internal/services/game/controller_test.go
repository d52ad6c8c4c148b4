package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/battleship-go/internal/dependencies/mocks"
	"github.com/mcoot/battleship-go/internal/dependencies/random"
	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/services/board"
	"github.com/mcoot/battleship-go/internal/services/stats"
	"github.com/mcoot/battleship-go/internal/services/twopc"
	"github.com/mcoot/battleship-go/internal/storage/memory"
	"github.com/mcoot/battleship-go/internal/testutil"
)

// recordingNotifier captures notifications instead of delivering them
type recordingNotifier struct {
	mu      sync.Mutex
	sent    map[model.PlayerID][]model.Notification
	removed []model.PlayerID
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{sent: make(map[model.PlayerID][]model.Notification)}
}

func (n *recordingNotifier) Notify(playerID model.PlayerID, msg model.Notification) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent[playerID] = append(n.sent[playerID], msg)
	return true
}

func (n *recordingNotifier) Remove(playerID model.PlayerID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.removed = append(n.removed, playerID)
}

func (n *recordingNotifier) events(playerID model.PlayerID) []model.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []model.EventType
	for _, msg := range n.sent[playerID] {
		out = append(out, msg.Event)
	}
	return out
}

// decliningParticipant votes no on every prepare
type decliningParticipant struct{}

func (decliningParticipant) Name() string { return "declining" }

func (decliningParticipant) Prepare(context.Context, twopc.Op) error {
	return &twopc.DeclinedError{Participant: "declining", Reason: "no"}
}

func (decliningParticipant) Commit(context.Context, twopc.Op) error   { return nil }
func (decliningParticipant) Rollback(context.Context, twopc.Op) error { return nil }

var testFleet = model.Fleet{
	{Name: "Destroyer", Size: 1},
	{Name: "Submarine", Size: 2},
}

type ControllerSuite struct {
	suite.Suite
	games      *memory.Storage
	profiles   *memory.Storage
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	notifier   *recordingNotifier
	stats      *stats.Coordinator
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.games = memory.New()
	s.profiles = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.random.Fallback = random.New()
	s.notifier = newRecordingNotifier()
	s.ctx = context.Background()

	logger := testutil.NopLogger()
	s.stats = stats.New(s.profiles, s.clock, stats.DefaultConfig(), logger)
	s.controller = s.newController(twopc.NewLocalParticipant("profile", s.stats))

	for _, name := range []string{"alice", "bob"} {
		s.Require().NoError(s.profiles.CreateProfile(s.ctx, &model.Profile{ID: model.PlayerID(name), Username: name}))
	}
}

func (s *ControllerSuite) newController(participant twopc.Participant) *Controller {
	logger := testutil.NopLogger()
	return NewController(
		s.games,
		board.New(s.random, logger),
		s.notifier,
		twopc.New(twopc.Config{ParticipantTimeout: time.Second, CommitAttempts: 1}, logger),
		participant,
		s.clock,
		Config{GridSize: 5, Fleet: testFleet},
		logger,
	)
}

// queueLayout queues a Destroyer at (0,0) and a Submarine at (0,1)-(1,1)
func (s *ControllerSuite) queueLayout() {
	s.random.QueuePlacement(false, 0, 0)
	s.random.QueuePlacement(false, 0, 1)
}

func (s *ControllerSuite) startGame() *model.Game {
	s.queueLayout()
	g, err := s.controller.CreateGame(s.ctx, "alice")
	s.Require().NoError(err)
	s.queueLayout()
	g, err = s.controller.JoinGame(s.ctx, g.ID, "bob")
	s.Require().NoError(err)
	return g
}

func (s *ControllerSuite) profile(id model.PlayerID) *model.Profile {
	p, err := s.profiles.GetProfile(s.ctx, id)
	s.Require().NoError(err)
	return p
}

// CreateGame tests

func (s *ControllerSuite) TestCreateGameSucceeds() {
	s.queueLayout()

	g, err := s.controller.CreateGame(s.ctx, "alice")
	s.Require().NoError(err)

	s.NotEmpty(g.ID)
	s.Equal(model.PlayerID("alice"), g.Player1ID)
	s.Empty(g.Player2ID)
	s.Equal(model.StatusWaiting, g.Status)
	s.Equal(5, g.GridSize)
	s.Len(g.Player1Grid, testFleet.TotalCells())
	s.Nil(g.Player2Grid)

	stored, err := s.controller.GetGame(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Equal(g.Player1Grid, stored.Player1Grid)
}

func (s *ControllerSuite) TestCreateGameTwiceFails() {
	first, err := s.controller.CreateGame(s.ctx, "alice")
	s.Require().NoError(err)

	_, err = s.controller.CreateGame(s.ctx, "alice")
	s.ErrorIs(err, model.ErrActiveGameExists)
	s.Contains(err.Error(), string(first.ID))
}

func (s *ControllerSuite) TestCreateGameRequiresPlayer() {
	_, err := s.controller.CreateGame(s.ctx, "")
	s.ErrorIs(err, model.ErrMissingPlayerID)
}

func (s *ControllerSuite) TestCreateGameAfterLeavingSucceeds() {
	g, err := s.controller.CreateGame(s.ctx, "alice")
	s.Require().NoError(err)
	_, err = s.controller.LeaveGame(s.ctx, g.ID, "alice")
	s.Require().NoError(err)

	_, err = s.controller.CreateGame(s.ctx, "alice")
	s.NoError(err)
}

// JoinGame tests

func (s *ControllerSuite) TestJoinGameSucceeds() {
	g := s.startGame()

	s.Equal(model.StatusInProgress, g.Status)
	s.Equal(model.PlayerID("bob"), g.Player2ID)
	s.Len(g.Player2Grid, testFleet.TotalCells())
	s.Equal(model.PlayerID("alice"), g.Turn)

	s.Equal([]model.EventType{model.EventPlayerJoined}, s.notifier.events("alice"))
	s.Empty(s.notifier.events("bob"))
}

func (s *ControllerSuite) TestJoinGameNotFound() {
	_, err := s.controller.JoinGame(s.ctx, "missing", "bob")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ControllerSuite) TestJoinGameInProgressNotJoinable() {
	g := s.startGame()

	_, err := s.controller.JoinGame(s.ctx, g.ID, "alice")
	s.ErrorIs(err, model.ErrGameNotJoinable)
	_, err = s.controller.JoinGame(s.ctx, g.ID, "carol")
	s.ErrorIs(err, model.ErrGameNotJoinable)
}

func (s *ControllerSuite) TestJoinOwnGameFails() {
	g, err := s.controller.CreateGame(s.ctx, "alice")
	s.Require().NoError(err)

	_, err = s.controller.JoinGame(s.ctx, g.ID, "alice")
	s.ErrorIs(err, model.ErrSelfJoin)
}

func (s *ControllerSuite) TestJoinWhileSeatedElsewhereFails() {
	g, err := s.controller.CreateGame(s.ctx, "alice")
	s.Require().NoError(err)
	_, err = s.controller.CreateGame(s.ctx, "bob")
	s.Require().NoError(err)

	_, err = s.controller.JoinGame(s.ctx, g.ID, "bob")
	s.ErrorIs(err, model.ErrActiveGameExists)

	stored, err := s.controller.GetGame(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusWaiting, stored.Status)
}

func (s *ControllerSuite) TestConcurrentJoinsHaveOneWinner() {
	g, err := s.controller.CreateGame(s.ctx, "alice")
	s.Require().NoError(err)

	const joiners = 10
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		winners    []model.PlayerID
		notJoined  int
		unexpected []error
	)
	for i := range joiners {
		wg.Add(1)
		go func(id model.PlayerID) {
			defer wg.Done()
			_, err := s.controller.JoinGame(s.ctx, g.ID, id)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, id)
			case errors.Is(err, model.ErrGameNotJoinable):
				notJoined++
			default:
				unexpected = append(unexpected, err)
			}
		}(model.PlayerID(fmt.Sprintf("joiner-%d", i)))
	}
	wg.Wait()

	s.Empty(unexpected)
	s.Require().Len(winners, 1)
	s.Equal(joiners-1, notJoined)

	stored, err := s.controller.GetGame(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Equal(winners[0], stored.Player2ID)
	s.Equal(model.StatusInProgress, stored.Status)

	// Only the winner holds a seat
	for i := range joiners {
		id := model.PlayerID(fmt.Sprintf("joiner-%d", i))
		_, err := s.controller.ActiveGame(s.ctx, id)
		if id == winners[0] {
			s.NoError(err)
		} else {
			s.ErrorIs(err, model.ErrGameNotFound)
		}
	}
	s.Len(s.notifier.events("alice"), 1)
}

// LeaveGame tests

func (s *ControllerSuite) TestCreatorLeaveEndsGame() {
	g := s.startGame()

	left, err := s.controller.LeaveGame(s.ctx, g.ID, "alice")
	s.Require().NoError(err)
	s.Equal(model.StatusFinished, left.Status)
	s.Nil(left.Player1Grid)
	s.Nil(left.Player2Grid)

	_, err = s.controller.GetGame(s.ctx, g.ID)
	s.ErrorIs(err, model.ErrGameNotFound)
	_, err = s.controller.ActiveGame(s.ctx, "alice")
	s.ErrorIs(err, model.ErrGameNotFound)
	_, err = s.controller.ActiveGame(s.ctx, "bob")
	s.ErrorIs(err, model.ErrGameNotFound)

	s.Equal([]model.EventType{model.EventGameEnded}, s.notifier.events("bob"))
	s.Equal([]model.PlayerID{"alice"}, s.notifier.removed)
}

func (s *ControllerSuite) TestCreatorLeaveWaitingGameNotifiesNobody() {
	g, err := s.controller.CreateGame(s.ctx, "alice")
	s.Require().NoError(err)

	_, err = s.controller.LeaveGame(s.ctx, g.ID, "alice")
	s.Require().NoError(err)
	s.Empty(s.notifier.sent)
}

func (s *ControllerSuite) TestOpponentLeaveReopensGame() {
	g := s.startGame()
	creatorGrid := g.Player1Grid

	_, err := s.controller.Attack(s.ctx, g.ID, "alice", model.Coordinate{X: 4, Y: 4})
	s.Require().NoError(err)

	left, err := s.controller.LeaveGame(s.ctx, g.ID, "bob")
	s.Require().NoError(err)
	s.Equal(model.StatusWaiting, left.Status)

	stored, err := s.controller.GetGame(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusWaiting, stored.Status)
	s.Equal(model.PlayerID("alice"), stored.Player1ID)
	s.Empty(stored.Player2ID)
	s.Empty(stored.Player2Grid)
	s.Empty(stored.Player1Shots)
	s.Equal(creatorGrid, stored.Player1Grid)

	_, err = s.controller.ActiveGame(s.ctx, "bob")
	s.ErrorIs(err, model.ErrGameNotFound)

	s.Equal([]model.EventType{model.EventPlayerJoined, model.EventOpponentLeft}, s.notifier.events("alice"))

	// Someone else can take the seat
	_, err = s.controller.JoinGame(s.ctx, g.ID, "carol")
	s.NoError(err)
}

func (s *ControllerSuite) TestLeaveByOutsiderFails() {
	g := s.startGame()
	_, err := s.controller.LeaveGame(s.ctx, g.ID, "carol")
	s.ErrorIs(err, model.ErrNotAParticipant)
}

func (s *ControllerSuite) TestLeaveMissingGame() {
	_, err := s.controller.LeaveGame(s.ctx, "missing", "alice")
	s.ErrorIs(err, model.ErrGameNotFound)
}

// Attack tests

func (s *ControllerSuite) TestAttackRequiresInProgressGame() {
	g, err := s.controller.CreateGame(s.ctx, "alice")
	s.Require().NoError(err)

	_, err = s.controller.Attack(s.ctx, g.ID, "alice", model.Coordinate{X: 0, Y: 0})
	s.ErrorIs(err, model.ErrGameNotInProgress)

	_, err = s.controller.Attack(s.ctx, "missing", "alice", model.Coordinate{X: 0, Y: 0})
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ControllerSuite) TestAttackOutOfTurn() {
	g := s.startGame()
	_, err := s.controller.Attack(s.ctx, g.ID, "bob", model.Coordinate{X: 0, Y: 0})
	s.ErrorIs(err, model.ErrNotYourTurn)
}

func (s *ControllerSuite) TestAttackByOutsider() {
	g := s.startGame()
	_, err := s.controller.Attack(s.ctx, g.ID, "carol", model.Coordinate{X: 0, Y: 0})
	s.ErrorIs(err, model.ErrNotAParticipant)
}

func (s *ControllerSuite) TestAttackOutsideGrid() {
	g := s.startGame()
	_, err := s.controller.Attack(s.ctx, g.ID, "alice", model.Coordinate{X: 5, Y: 0})
	s.ErrorIs(err, model.ErrInvalidCoordinate)
	_, err = s.controller.Attack(s.ctx, g.ID, "alice", model.Coordinate{X: 0, Y: -1})
	s.ErrorIs(err, model.ErrInvalidCoordinate)
}

func (s *ControllerSuite) TestAttackSameCellTwice() {
	g := s.startGame()
	_, err := s.controller.Attack(s.ctx, g.ID, "alice", model.Coordinate{X: 3, Y: 3})
	s.Require().NoError(err)
	_, err = s.controller.Attack(s.ctx, g.ID, "bob", model.Coordinate{X: 3, Y: 3})
	s.Require().NoError(err)

	_, err = s.controller.Attack(s.ctx, g.ID, "alice", model.Coordinate{X: 3, Y: 3})
	s.ErrorIs(err, model.ErrAlreadyTargeted)

	// The rejected shot did not use up alice's turn
	stored, err := s.controller.GetGame(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("alice"), stored.Turn)
}

func (s *ControllerSuite) TestAttackResults() {
	g := s.startGame()

	out, err := s.controller.Attack(s.ctx, g.ID, "alice", model.Coordinate{X: 4, Y: 4})
	s.Require().NoError(err)
	s.Equal(model.ShotMiss, out.Result)
	s.Equal(model.PlayerID("bob"), out.Game.Turn)

	out, err = s.controller.Attack(s.ctx, g.ID, "bob", model.Coordinate{X: 0, Y: 1})
	s.Require().NoError(err)
	s.Equal(model.ShotHit, out.Result)
	s.Equal("Submarine", out.Ship)

	out, err = s.controller.Attack(s.ctx, g.ID, "alice", model.Coordinate{X: 0, Y: 0})
	s.Require().NoError(err)
	s.Equal(model.ShotSunk, out.Result)
	s.Equal("Destroyer", out.Ship)
	s.Equal(model.StatusInProgress, out.Game.Status)

	s.Equal([]model.EventType{model.EventAttackResult, model.EventAttackResult}, s.notifier.events("bob"))
}

func (s *ControllerSuite) playToWin(g *model.Game) (*AttackOutcome, error) {
	shots := []struct {
		player model.PlayerID
		at     model.Coordinate
	}{
		{"alice", model.Coordinate{X: 0, Y: 0}},
		{"bob", model.Coordinate{X: 4, Y: 4}},
		{"alice", model.Coordinate{X: 0, Y: 1}},
		{"bob", model.Coordinate{X: 4, Y: 3}},
	}
	for _, shot := range shots {
		_, err := s.controller.Attack(s.ctx, g.ID, shot.player, shot.at)
		s.Require().NoError(err)
	}
	return s.controller.Attack(s.ctx, g.ID, "alice", model.Coordinate{X: 1, Y: 1})
}

func (s *ControllerSuite) TestWinningShotFinishesGameAndRecordsStats() {
	g := s.startGame()

	out, err := s.playToWin(g)
	s.Require().NoError(err)
	s.Equal(model.ShotSunk, out.Result)
	s.Equal(model.StatusFinished, out.Game.Status)
	s.Equal(model.PlayerID("alice"), out.Game.Winner)

	alice, bob := s.profile("alice"), s.profile("bob")
	s.Equal(1, alice.Wins)
	s.Equal(1, alice.TotalGames)
	s.Equal(1, bob.Losses)
	s.Equal(1, bob.TotalGames)
	s.Equal(0, s.stats.Pending())

	// Both seats are released
	_, err = s.controller.ActiveGame(s.ctx, "alice")
	s.ErrorIs(err, model.ErrGameNotFound)
	_, err = s.controller.ActiveGame(s.ctx, "bob")
	s.ErrorIs(err, model.ErrGameNotFound)

	s.Contains(s.notifier.events("alice"), model.EventGameOver)
	s.Contains(s.notifier.events("bob"), model.EventGameOver)

	_, err = s.controller.Attack(s.ctx, g.ID, "bob", model.Coordinate{X: 2, Y: 2})
	s.ErrorIs(err, model.ErrGameNotInProgress)
	_, err = s.controller.LeaveGame(s.ctx, g.ID, "bob")
	s.ErrorIs(err, model.ErrGameFinished)
}

func (s *ControllerSuite) TestWinningShotRejectedWhenStatsDecline() {
	g := s.startGame()
	s.controller = s.newController(decliningParticipant{})

	_, err := s.playToWin(g)
	s.ErrorIs(err, model.ErrStatsUnavailable)

	stored, err := s.controller.GetGame(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusInProgress, stored.Status)
	s.Equal(model.PlayerID("alice"), stored.Turn)
	s.Len(stored.Player1Shots, 2)
	s.Empty(stored.Winner)
}

func (s *ControllerSuite) TestWinningShotRollsBackWhenLoserCannotPrepare() {
	g := s.startGame()
	// bob's profile is held by another transaction, so his branch declines
	s.Require().NoError(s.stats.Prepare(s.ctx, "other-tx", "bob", model.ResultWin))

	_, err := s.playToWin(g)
	s.ErrorIs(err, model.ErrStatsUnavailable)

	// alice's prepared branch was rolled back
	s.Equal(1, s.stats.Pending())
	s.Equal(0, s.profile("alice").Wins)

	s.Require().NoError(s.stats.Rollback(s.ctx, "other-tx"))
	out, err := s.controller.Attack(s.ctx, g.ID, "alice", model.Coordinate{X: 1, Y: 1})
	s.Require().NoError(err)
	s.Equal(model.StatusFinished, out.Game.Status)
	s.Equal(1, s.profile("alice").Wins)
}

func (s *ControllerSuite) TestWinWithoutStatsParticipant() {
	s.controller = s.newController(nil)
	g := s.startGame()

	out, err := s.playToWin(g)
	s.Require().NoError(err)
	s.Equal(model.StatusFinished, out.Game.Status)
	s.Equal(0, s.profile("alice").Wins)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		fits bool
	}{
		{"defaults", Config{}, true},
		{"default fleet on a 5x5 grid", Config{GridSize: 5}, true},
		{"carrier longer than the grid", Config{GridSize: 4}, false},
		{"small fleet on a small grid", Config{GridSize: 2, Fleet: model.Fleet{{Name: "Destroyer", Size: 1}}}, true},
		{"more cells than the grid", Config{GridSize: 2, Fleet: model.Fleet{{Name: "A", Size: 2}, {Name: "B", Size: 2}, {Name: "C", Size: 1}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.fits {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, model.ErrFleetDoesNotFit)
			}
		})
	}
}
