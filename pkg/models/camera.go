package models

import "time"

// CameraEndpoint is everything needed to reach one camera for a single
// control or streaming operation.
type CameraEndpoint struct {
	Address  string `json:"address"` // IPv4 dotted quad, "host:port" is accepted for local fakes
	Username string `json:"username"`
	Password string `json:"password"`
}

// Camera is a row of the credential store
type Camera struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:128;uniqueIndex;not null" json:"name"`
	Address   string    `gorm:"column:ip_camera;size:15;uniqueIndex;not null" json:"ip"`
	Username  string    `gorm:"size:128;not null" json:"username"`
	Password  string    `gorm:"size:128;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Endpoint returns the connection details of the stored camera.
func (c Camera) Endpoint() CameraEndpoint {
	return CameraEndpoint{
		Address:  c.Address,
		Username: c.Username,
		Password: c.Password,
	}
}
