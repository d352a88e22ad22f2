package scene

// Defaults contains scene-wide authoring constants. They are serialized with
// the scene so a saved design keeps the units it was drawn in.
//
// Lengths on the grid plane are in grid units; vertical measures are meters.
type Defaults struct {
	GridUnit       float64 `json:"gridUnit"`       // meters per grid unit
	WallThickness  float64 `json:"wallThickness"`  // grid units
	WallHeight     float64 `json:"wallHeight"`     // meters
	SlabThickness  float64 `json:"slabThickness"`  // meters
	DoorHeight     float64 `json:"doorHeight"`     // meters
	WindowHeight   float64 `json:"windowHeight"`   // meters
	RoofThickness  float64 `json:"roofThickness"`  // meters
	MinLevelHeight float64 `json:"minLevelHeight"` // meters
}

// NewDefaults returns the standard authoring constants.
func NewDefaults() Defaults {
	return Defaults{
		GridUnit:       0.5,
		WallThickness:  0.2,
		WallHeight:     2.5,
		SlabThickness:  0.2,
		DoorHeight:     2.1,
		WindowHeight:   1.5,
		RoofThickness:  0.3,
		MinLevelHeight: 2.5,
	}
}

// Meters converts a grid-plane length to meters.
func (d Defaults) Meters(gridUnits float64) float64 {
	return gridUnits * d.GridUnit
}
