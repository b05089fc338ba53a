package models

import "time"

// Notification verbs.
const (
	VerbCommented     = "commented on your post"
	VerbReplied       = "replied to your comment"
	VerbLikedComment  = "liked your comment"
	TargetTypePost    = "post"
	TargetTypeComment = "comment"
)

// Notification is a pull-based activity record for a user. Created
// best-effort when someone interacts with their content; self-actions never
// notify.
type Notification struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RecipientID uint      `gorm:"not null;index" json:"recipient_id"`
	ActorID     uint      `gorm:"not null" json:"actor_id"`
	Actor       User      `gorm:"foreignKey:ActorID" json:"actor"`
	Verb        string    `gorm:"size:50;not null" json:"verb"`
	TargetType  string    `gorm:"size:20;not null" json:"target_type"`
	TargetID    uint      `gorm:"not null" json:"target_id"`
	Unread      bool      `gorm:"not null;default:true;index" json:"unread"`
	CreatedAt   time.Time `json:"created_at"`
}
