package models

import "time"

// NotificationTypeSystem is used for delivery problems reported back to the user.
const NotificationTypeSystem = "system"

// Notification is an in-app message shown to a user.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Type      string    `gorm:"size:50;not null" json:"type"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Message   string    `gorm:"type:text" json:"message"`
	RelatedID *uint     `json:"related_id"`
	IsRead    bool      `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
