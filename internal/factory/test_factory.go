package factory

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/battleship-go/internal/dependencies/mocks"
	"github.com/mcoot/battleship-go/internal/dependencies/random"
	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/services/auth"
	"github.com/mcoot/battleship-go/internal/services/game"
	"github.com/mcoot/battleship-go/internal/services/stats"
	"github.com/mcoot/battleship-go/internal/services/twopc"
	"github.com/mcoot/battleship-go/internal/storage"
	"github.com/mcoot/battleship-go/internal/storage/memory"
	"github.com/mcoot/battleship-go/internal/testutil"
)

// testEpoch is the mock clock's starting time
var testEpoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// TestApp runs both services in one process with mocked dependencies
type TestApp struct {
	*GameApp

	// Profile is the profile service the game service reports to
	Profile *ProfileApp

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// TestOptions customises NewTestAppWithOptions. Zero values give in-memory
// stores and an in-process statistics participant.
type TestOptions struct {
	Games storage.GameStore
	// Profile replaces the in-process profile service
	Profile *ProfileApp
	// Participant replaces the in-process statistics participant, for
	// example with an HTTP participant pointing at a test server
	Participant twopc.Participant
	// Standalone runs the game service without statistics
	Standalone bool
	Game       game.Config
	TwoPC      twopc.Config
}

// NewTestApp creates both services over in-memory stores
func NewTestApp() *TestApp {
	return NewTestAppWithOptions(TestOptions{})
}

// NewTestAppWithOptions creates both services with the given overrides
func NewTestAppWithOptions(opts TestOptions) *TestApp {
	mockClock := mocks.NewMockClock(testEpoch)
	mockRandom := mocks.NewMockRandom()
	// Unscripted placements stay random so boards never collide forever
	mockRandom.Fallback = random.New()

	profile := opts.Profile
	if profile == nil {
		profile = NewTestProfileApp(memory.New(), mockClock)
	}

	participant := opts.Participant
	if participant == nil && !opts.Standalone {
		participant = twopc.NewLocalParticipant(participantName, profile.Stats)
	}

	games := opts.Games
	if games == nil {
		games = memory.New()
	}

	txCfg := opts.TwoPC
	if txCfg.ParticipantTimeout == 0 {
		txCfg = twopc.Config{ParticipantTimeout: time.Second, CommitAttempts: 3}
	}

	app := newGameWithDependencies(games, mockClock, mockRandom, participant, opts.Game, txCfg, testutil.NopLogger())

	return &TestApp{
		GameApp:    app,
		Profile:    profile,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// NewTestProfileApp creates a profile service with cheap password hashing
func NewTestProfileApp(profiles storage.ProfileStore, clk *mocks.MockClock) *ProfileApp {
	if clk == nil {
		clk = mocks.NewMockClock(testEpoch)
	}
	return newProfileWithDependencies(profiles, clk,
		auth.Config{SessionDuration: 24 * time.Hour, BcryptCost: bcrypt.MinCost},
		stats.DefaultConfig(),
		testutil.NopLogger(),
	)
}

// RegisterPlayer creates a profile on the profile service and returns it
func (t *TestApp) RegisterPlayer(ctx context.Context, username string) (*model.Profile, error) {
	return t.Profile.AuthService.Register(ctx, username, username+"-password")
}
