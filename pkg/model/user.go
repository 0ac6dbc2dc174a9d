package model

// User is an end-user profile ("usuario"). Authentication, password and
// email-verification flows live outside this service; bookings only need the
// profile fields, chiefly the phone number looked up on direct reservation.
type User struct {
	ID       string `json:"_id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name     string `json:"nombre" bson:"nombre" validate:"required,min=1,max=60"`
	LastName string `json:"apellido" bson:"apellido" validate:"required,min=1,max=60"`
	Phone    string `json:"telefono" bson:"telefono"`
	Email    string `json:"email" bson:"email" validate:"required,email"`
	Active   bool   `json:"activo" bson:"activo"`
}

type UserUpdate struct {
	Name     string `json:"nombre,omitempty" validate:"omitempty,min=1,max=60"`
	LastName string `json:"apellido,omitempty" validate:"omitempty,min=1,max=60"`
	Phone    string `json:"telefono,omitempty"`
}
