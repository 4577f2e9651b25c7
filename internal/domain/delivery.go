package domain

// Lifecycle state of a delivery as reported by the delivery data source.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryAssigned  DeliveryStatus = "assigned"
	DeliveryPickedUp  DeliveryStatus = "picked_up"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryCancelled DeliveryStatus = "cancelled"
)

// Terminal reports whether the delivery can no longer be routed.
func (s DeliveryStatus) Terminal() bool {
	return s == DeliveryDelivered || s == DeliveryCancelled
}

// Represents a single delivery job: collect at the pickup point and
// hand over at the drop-off point.
type Delivery struct {
	ID              string
	Status          DeliveryStatus
	PickupLocation  Location
	PickupAddress   string
	DropoffLocation Location
	DropoffAddress  string
}

// NeedsPickup reports whether the driver still has to collect the delivery.
func (d Delivery) NeedsPickup() bool {
	return d.Status != DeliveryPickedUp
}
