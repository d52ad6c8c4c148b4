package model

import "fmt"

// DefaultGridSize is the side length of a standard board
const DefaultGridSize = 10

// ShipSpec is one entry of a fleet roster
type ShipSpec struct {
	Name string `json:"name" yaml:"name"`
	Size int    `json:"size" yaml:"size"`
}

// Fleet is the ordered roster of ships placed on every grid
type Fleet []ShipSpec

// DefaultFleet returns the standard five-ship roster
func DefaultFleet() Fleet {
	return Fleet{
		{Name: "Carrier", Size: 5},
		{Name: "Battleship", Size: 4},
		{Name: "Cruiser", Size: 3},
		{Name: "Submarine", Size: 2},
		{Name: "Destroyer", Size: 1},
	}
}

// TotalCells returns the number of cells the fleet occupies
func (f Fleet) TotalCells() int {
	total := 0
	for _, s := range f {
		total += s.Size
	}
	return total
}

// Fits reports ErrFleetDoesNotFit when some ship is longer than the grid
// side or the fleet has more cells than the grid
func (f Fleet) Fits(gridSize int) error {
	if gridSize <= 0 {
		return fmt.Errorf("%w: grid size %d", ErrFleetDoesNotFit, gridSize)
	}
	for _, ship := range f {
		if ship.Size <= 0 || ship.Size > gridSize {
			return fmt.Errorf("%w: %s has size %d on a %dx%d grid",
				ErrFleetDoesNotFit, ship.Name, ship.Size, gridSize, gridSize)
		}
	}
	if f.TotalCells() > gridSize*gridSize {
		return fmt.Errorf("%w: %d cells on a %dx%d grid",
			ErrFleetDoesNotFit, f.TotalCells(), gridSize, gridSize)
	}
	return nil
}
