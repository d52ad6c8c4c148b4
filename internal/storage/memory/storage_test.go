package memory

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/battleship-go/internal/storage"
	"github.com/mcoot/battleship-go/internal/storage/storagetest"
)

func TestGameStore(t *testing.T) {
	suite.Run(t, &storagetest.GameStoreSuite{
		NewStore: func() storage.GameStore { return New() },
	})
}

func TestProfileStore(t *testing.T) {
	suite.Run(t, &storagetest.ProfileStoreSuite{
		NewStore: func() storage.ProfileStore { return New() },
	})
}
