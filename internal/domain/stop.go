package domain

// Kind of visit a stop represents.
type StopRole string

const (
	RoleStart    StopRole = "start"
	RolePickup   StopRole = "pickup"
	RoleReskflow StopRole = "reskflow"
)

// A single physical waypoint in an optimization problem.
// Index is the stop's row/column in the distance matrix; index 0 is
// always the driver's start location.
type Stop struct {
	Index      int
	Role       StopRole
	DeliveryID string
	Location   Location
	Address    string
}
