package car

import "fmt"

// CarCreated is emitted exactly once per committed create. No other
// operation produces it.
type CarCreated struct {
	ID  uint64
	VIN string
}

func (CarCreated) Name() string { return "car.created" }

func (e CarCreated) String() string {
	return fmt.Sprintf("car.created{id=%d vin=%s}", e.ID, e.VIN)
}
