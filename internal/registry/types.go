// Package registry defines the presence registry: one record per enrolled
// visit, present until a departure timestamp is set. Records are never
// deleted; the full history is the audit trail.
package registry

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Visitor is a single enrolled visit.
type Visitor struct {
	ID        int64     `json:"id"`
	FaceID    string    `json:"face_id"`
	Embedding []float32 `json:"-"`

	VisitorDetails

	PhotoURL     string     `json:"photo_url,omitempty"`
	CheckInTime  time.Time  `json:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty"`
}

// IsPresent reports whether the visitor has not checked out yet.
func (v *Visitor) IsPresent() bool {
	return v.CheckOutTime == nil
}

// VisitorDetails holds the enrollment-time contact and purpose fields.
// Bounds mirror the public check-in form.
type VisitorDetails struct {
	Name   string `json:"name" validate:"required,min=2,max=100"`
	Age    *int   `json:"age,omitempty" validate:"omitempty,gte=0,lte=120"`
	Gender string `json:"gender" validate:"required,max=20"`

	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,min=8,max=15"`

	Address string `json:"address" validate:"required,min=5,max=255"`
	Purpose string `json:"purpose" validate:"required,min=3,max=255"`

	PersonToMeet string `json:"person_to_meet" validate:"required,min=2,max=100"`
	PersonEmail  string `json:"person_email" validate:"required,email"`
	PersonPhone  string `json:"person_phone" validate:"required,min=8,max=15"`

	Location string `json:"location" validate:"required,min=3,max=100"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the field bounds. The resolution engine rejects invalid
// details before anything touches the registry.
func (d *VisitorDetails) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("invalid visitor details: %w", err)
	}
	return nil
}

// NewVisitor is the insert payload for a confirmed entry decision.
type NewVisitor struct {
	FaceID      string
	Embedding   []float32
	Details     VisitorDetails
	PhotoURL    string
	CheckInTime time.Time
}
