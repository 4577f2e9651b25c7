package dto

import "route-optimization-service/internal/domain"

type DeliveryResponse struct {
	DeliveryID      string          `json:"delivery_id"`
	Status          string          `json:"status"`
	PickupLocation  domain.Location `json:"pickup_location"`
	PickupAddress   string          `json:"pickup_address,omitempty"`
	DropoffLocation domain.Location `json:"dropoff_location"`
	DropoffAddress  string          `json:"dropoff_address,omitempty"`
}

type ListDeliveriesResponse struct {
	Deliveries []DeliveryResponse `json:"deliveries"`
}
