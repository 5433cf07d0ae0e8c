package models

import "time"

// Device GPS-трекер пользователя.
type Device struct {
	ID        string       `json:"id"`
	UserID    string       `json:"userId"`
	Name      string       `json:"name"`
	IMEI      string       `json:"imei"`
	TraccarID *int64       `json:"traccarId,omitempty"`
	IsActive  bool         `json:"isActive"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Owner     *UserSummary `json:"user,omitempty"`
}

// IsLinked сообщает, зарегистрировано ли устройство на платформе трекинга.
func (d *Device) IsLinked() bool {
	return d.TraccarID != nil
}
