package models

import "time"

// RequestKind discriminates the free booking path from the paid order path.
type RequestKind string

const (
	// RequestKindBook is a claim against a free post.
	RequestKindBook RequestKind = "book"
	// RequestKindOrder is a paid claim against a priced post.
	RequestKindOrder RequestKind = "order"
)

// RequestStatus defines lifecycle states for a food request.
type RequestStatus string

const (
	// RequestStatusPending indicates the request is awaiting the owner's decision.
	RequestStatusPending RequestStatus = "pending"
	// RequestStatusAccepted indicates the owner accepted the request. Terminal.
	RequestStatusAccepted RequestStatus = "accepted"
	// RequestStatusCancelled indicates the owner cancelled the request. Terminal.
	RequestStatusCancelled RequestStatus = "cancelled"
)

// FoodRequest is the ledger record of one claim (booking or order) and its
// approval status. Status moves pending -> accepted or pending -> cancelled
// and never leaves a terminal state.
type FoodRequest struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OwnerID     uint      `gorm:"not null;index" json:"owner_id"`
	Owner       *User     `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	RequesterID uint      `gorm:"not null;index" json:"requester_id"`
	Requester   *User     `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	FoodPostID  uint      `gorm:"not null;index" json:"food_post_id"`
	FoodPost    *FoodPost `gorm:"foreignKey:FoodPostID" json:"food_post,omitempty"`

	Kind     RequestKind `gorm:"type:varchar(10);not null" json:"kind"`
	Quantity int         `gorm:"not null;default:1" json:"quantity"`
	// Price is the order total (unit price x quantity); zero for bookings.
	Price float64 `gorm:"not null;default:0" json:"price"`

	// Denormalized post fields so the owner's notification list renders
	// without joins, mirroring what the requester saw when claiming.
	FoodTitle string `json:"food_title"`
	FoodImage string `json:"food_image"`

	RequesterName    string `json:"requester_name"`
	RequesterContact string `json:"requester_contact"`
	RequesterAddress string `json:"requester_address"`

	// PaymentRef holds the authorizer's intent reference for orders.
	PaymentRef string `gorm:"index" json:"payment_ref,omitempty"`

	Status    RequestStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
