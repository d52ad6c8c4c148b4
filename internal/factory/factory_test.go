package factory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/battleship-go/internal/config"
	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/services/game"
	"github.com/mcoot/battleship-go/internal/testutil"
)

func TestNewGameAppRejectsGridTooSmallForFleet(t *testing.T) {
	_, err := NewGameApp(GameConfig{
		Logger: testutil.NopLogger(),
		Game:   game.Config{GridSize: 4},
	})
	assert.ErrorIs(t, err, model.ErrFleetDoesNotFit)
}

func TestNewGameAppFromDefaults(t *testing.T) {
	app, err := NewGameApp(GameConfigFrom(config.Default(), testutil.NopLogger()))
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.Stats, "no profile service configured")
	assert.Nil(t, app.Authenticator)
}

func TestProfileAppRunSurvivesZeroInterval(t *testing.T) {
	app := NewTestApp()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		app.Profile.Run(ctx, 0)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
