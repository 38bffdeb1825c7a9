package model

import "time"

type DiscoveryItem struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Type       BusinessType `json:"type"`
	Address    string       `json:"address"`
	Lat        float64      `json:"lat"`
	Lon        float64      `json:"lon"`
	DistanceKm *float64     `json:"distance_km,omitempty"`
	Status     StatusView   `json:"status"`
}

type StatusView struct {
	State       AvailabilityState `json:"state"`
	WaitMinutes int               `json:"wait_minutes"`
	QueueCount  int               `json:"queue_count"`
	UpdatedAt   *time.Time        `json:"updated_at"`
}

func NewStatusView(s AvailabilityStatus) StatusView {
	return StatusView{
		State:       s.State,
		WaitMinutes: s.EstimatedWaitMinutes,
		QueueCount:  s.CurrentQueueCount,
		UpdatedAt:   s.UpdatedAt,
	}
}
