package models

import (
	"time"

	"gorm.io/gorm"
)

// FoodPostStatus defines availability states for a food post.
type FoodPostStatus string

const (
	// FoodPostStatusAvailable indicates the post still has claimable quantity.
	FoodPostStatusAvailable FoodPostStatus = "available"
	// FoodPostStatusUnavailable indicates the post's quantity is exhausted.
	FoodPostStatusUnavailable FoodPostStatus = "unavailable"
)

// FoodPost is a listing of surplus food offered by an owner.
// Quantity only ever decreases, through successful claims; Status is
// unavailable exactly when Quantity has reached zero.
type FoodPost struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	OwnerID  uint   `gorm:"not null;index" json:"owner_id"`
	Owner    *User  `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Title    string `gorm:"not null" json:"title"`
	ImageURL string `json:"image_url"`

	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`

	IsFree   bool    `gorm:"not null;default:false" json:"is_free"`
	Price    float64 `gorm:"not null;default:0" json:"price"`
	Quantity int     `gorm:"not null;default:1" json:"quantity"`

	// Priced posts carry the offering restaurant's details.
	RestaurantName    string `json:"restaurant_name,omitempty"`
	RestaurantAddress string `json:"restaurant_address,omitempty"`
	Review            string `gorm:"type:text" json:"review,omitempty"`

	Status    FoodPostStatus `gorm:"type:varchar(20);not null;default:'available';index" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
