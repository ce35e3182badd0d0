package model

import "time"

// BaseModel audit fields embedded in every stored document.
type BaseModel struct {
	CreatedAt      time.Time `bson:"createdAt" json:"created_at"`
	CreatedBy      string    `bson:"createdBy,omitempty" json:"created_by,omitempty"`
	CreatedByEmail string    `bson:"createdByEmail,omitempty" json:"-"`
	UpdatedAt      time.Time `bson:"updatedAt" json:"updated_at"`
	UpdatedBy      string    `bson:"updatedBy,omitempty" json:"updated_by,omitempty"`
}

// Stamp sets the creation and update fields.
func (b *BaseModel) Stamp(actor Actor, now time.Time) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
		b.CreatedBy = actor.ID
		b.CreatedByEmail = actor.Email
	}
	b.UpdatedAt = now
	b.UpdatedBy = actor.ID
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID    string
	Name  string
	Email string
}
