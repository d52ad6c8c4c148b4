package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFleetFits(t *testing.T) {
	assert.NoError(t, DefaultFleet().Fits(DefaultGridSize))
	assert.NoError(t, DefaultFleet().Fits(5))

	err := DefaultFleet().Fits(4)
	assert.ErrorIs(t, err, ErrFleetDoesNotFit)
	assert.ErrorContains(t, err, "Carrier has size 5 on a 4x4 grid")

	assert.ErrorIs(t, DefaultFleet().Fits(0), ErrFleetDoesNotFit)
	assert.ErrorIs(t, Fleet{{Name: "A", Size: 3}, {Name: "B", Size: 3}}.Fits(2), ErrFleetDoesNotFit)
	assert.ErrorIs(t, Fleet{{Name: "Ghost", Size: 0}}.Fits(3), ErrFleetDoesNotFit)
}
