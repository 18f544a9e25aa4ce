package domain

import "fmt"

// VehicleCategory groups vehicles that share capacity and cost parameters.
// Count is the number of instances available to a single run.
type VehicleCategory struct {
	Name                  string            `json:"name"`
	CapacityLiters        float64           `json:"capacity_liters"`
	Count                 int               `json:"count"`
	FixedCost             float64           `json:"fixed_cost"`
	CostPerKm             float64           `json:"cost_per_km"`
	ServiceMinutesPerStop float64           `json:"service_time_minutes_per_stop"`
	Instances             []VehicleInstance `json:"instances,omitempty"`
}

// A concrete vehicle of a category, kept for result traceability.
type VehicleInstance struct {
	ID     string `json:"id"`
	Number string `json:"vehicle_number,omitempty"`
	Code   string `json:"vehicle_code,omitempty"`
	Name   string `json:"vehicle_name,omitempty"`
}

// DrawableInstances returns the instances a run may draw from this
// category, in registration order. Registered instances beyond Count are
// ignored; missing ones get synthesized IDs "<category>-<n>".
func (c VehicleCategory) DrawableInstances() []VehicleInstance {
	if c.Count <= 0 {
		return nil
	}

	out := make([]VehicleInstance, 0, c.Count)
	for i := 0; i < c.Count; i++ {
		var inst VehicleInstance
		if i < len(c.Instances) {
			inst = c.Instances[i]
		}
		inst.ID = c.InstanceID(i)
		out = append(out, inst)
	}
	return out
}

// InstanceID is the identifier of the i-th registered instance: its ID,
// else its code, else its number, else "<category>-<i+1>".
func (c VehicleCategory) InstanceID(i int) string {
	var inst VehicleInstance
	if i < len(c.Instances) {
		inst = c.Instances[i]
	}
	switch {
	case inst.ID != "":
		return inst.ID
	case inst.Code != "":
		return inst.Code
	case inst.Number != "":
		return inst.Number
	default:
		return fmt.Sprintf("%s-%d", c.Name, i+1)
	}
}
