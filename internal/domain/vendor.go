package domain

// Vendor is a milk-collection point (farmer). IDs are unique within a run.
type Vendor struct {
	ID         string      `json:"id"`
	Name       string      `json:"name,omitempty"`
	Location   Coordinates `json:"location"`
	MilkLiters float64     `json:"milk_liters"`
}

// Hub is a chilling/storage center that receives collected milk.
type Hub struct {
	ID             string      `json:"id"`
	Name           string      `json:"name,omitempty"`
	Location       Coordinates `json:"location"`
	CapacityLiters float64     `json:"capacity_liters"`
}
