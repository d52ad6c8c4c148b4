package board

import (
	"fmt"
	"log/slog"

	"github.com/mcoot/battleship-go/internal/dependencies/random"
	"github.com/mcoot/battleship-go/internal/model"
)

// DefaultMaxAttempts bounds the placement retries for a single ship
const DefaultMaxAttempts = 10000

// Generator places a fleet at random on an empty grid
type Generator struct {
	random      random.Random
	logger      *slog.Logger
	maxAttempts int
}

// New creates a Generator drawing from the given source of randomness
func New(rnd random.Random, logger *slog.Logger) *Generator {
	return &Generator{
		random:      rnd,
		logger:      logger,
		maxAttempts: DefaultMaxAttempts,
	}
}

// WithMaxAttempts overrides the per-ship retry bound. Zero or less means unbounded.
func (g *Generator) WithMaxAttempts(n int) *Generator {
	g.maxAttempts = n
	return g
}

// Generate returns the cells of every ship in the fleet, placed in roster order.
// Each ship gets a uniformly chosen orientation and an origin that keeps it on
// the grid; placements that touch an already placed cell are redrawn.
func (g *Generator) Generate(gridSize int, fleet model.Fleet) ([]model.ShipCell, error) {
	if err := fleet.Fits(gridSize); err != nil {
		return nil, err
	}

	occupied := make(map[model.Coordinate]bool, fleet.TotalCells())
	cells := make([]model.ShipCell, 0, fleet.TotalCells())

	for _, ship := range fleet {
		placed, attempts := false, 0
		for !placed {
			attempts++
			if g.maxAttempts > 0 && attempts > g.maxAttempts {
				g.logger.Warn("ship placement attempts exhausted",
					slog.String("ship", ship.Name),
					slog.Int("grid_size", gridSize),
					slog.Int("attempts", g.maxAttempts),
				)
				return nil, fmt.Errorf("%w: could not place %s", model.ErrFleetDoesNotFit, ship.Name)
			}

			candidate := g.candidate(gridSize, ship)
			if collides(candidate, occupied) {
				continue
			}
			for _, c := range candidate {
				occupied[c.Coordinate()] = true
			}
			cells = append(cells, candidate...)
			placed = true
		}
	}

	return cells, nil
}

// candidate draws one in-bounds placement for the ship
func (g *Generator) candidate(gridSize int, ship model.ShipSpec) []model.ShipCell {
	orientation := model.Horizontal
	if g.random.Intn(2) == 1 {
		orientation = model.Vertical
	}

	maxX, maxY := gridSize, gridSize
	if orientation == model.Horizontal {
		maxX = gridSize - ship.Size + 1
	} else {
		maxY = gridSize - ship.Size + 1
	}
	x := g.random.Intn(maxX)
	y := g.random.Intn(maxY)

	cells := make([]model.ShipCell, ship.Size)
	for i := range ship.Size {
		cell := model.ShipCell{X: x, Y: y, Ship: ship.Name, Orientation: orientation}
		if orientation == model.Horizontal {
			cell.X += i
		} else {
			cell.Y += i
		}
		cells[i] = cell
	}
	return cells
}

func collides(candidate []model.ShipCell, occupied map[model.Coordinate]bool) bool {
	for _, c := range candidate {
		if occupied[c.Coordinate()] {
			return true
		}
	}
	return false
}
