package models

import "time"

// Position точка трека устройства, полученная от платформы трекинга.
type Position struct {
	ID         int64          `json:"id"`
	DeviceID   int64          `json:"deviceId"`
	Latitude   float64        `json:"latitude"`
	Longitude  float64        `json:"longitude"`
	Altitude   float64        `json:"altitude"`
	Speed      float64        `json:"speed"`
	Course     float64        `json:"course"`
	Valid      bool           `json:"valid"`
	Address    *string        `json:"address,omitempty"`
	FixTime    time.Time      `json:"fixTime"`
	DeviceTime time.Time      `json:"deviceTime"`
	ServerTime time.Time      `json:"serverTime"`
	Attributes map[string]any `json:"attributes,omitempty"`
}
