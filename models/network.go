package models

import "time"

// NetworkMember is one of a user's existing connections.
type NetworkMember struct {
	UserID int64  `json:"userId" bson:"member_id"`
	Email  string `json:"email" bson:"member_email"`
}

// Connection is the persisted owner → member edge.
type Connection struct {
	OwnerID   int64     `bson:"owner_id" json:"ownerId"`
	MemberID  int64     `bson:"member_id" json:"memberId"`
	Email     string    `bson:"member_email" json:"email"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// Member projects a connection onto the member it points at.
func (c Connection) Member() NetworkMember {
	return NetworkMember{UserID: c.MemberID, Email: c.Email}
}

// MembershipResponse answers a "is this profile in my network" query.
type MembershipResponse struct {
	OwnerID   int64  `json:"ownerId"`
	MemberID  int64  `json:"memberId"`
	InNetwork bool   `json:"inNetwork"`
	State     string `json:"state"`
}
