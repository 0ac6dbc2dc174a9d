package model

// Court is a bookable playing field ("cancha") owned by a club. Opening and
// closing hours are stored as HH:MM strings and enabled weekdays as Spanish
// day names, matching the documents written by earlier versions of the
// system. NightFromHour/NightPrice are nullable: when NightFromHour is set
// and NightPrice is a valid non-negative number, slots starting at or after
// that hour are charged the night price.
type Court struct {
	ID            string   `json:"_id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name          string   `json:"nombre" bson:"nombre" validate:"required,min=2,max=100"`
	Sport         string   `json:"deporte" bson:"deporte" validate:"required,min=2,max=40"`
	BasePrice     float64  `json:"precio" bson:"precio" validate:"required,gt=0"`
	OpenFrom      string   `json:"horaDesde" bson:"horaDesde" validate:"required,hhmm"`
	OpenUntil     string   `json:"horaHasta" bson:"horaHasta" validate:"required,hhmm"`
	Weekdays      []string `json:"diasDisponibles" bson:"diasDisponibles" validate:"omitempty,dive,weekday_es"`
	ClubEmail     string   `json:"clubEmail" bson:"clubEmail" validate:"required,email"`
	SlotDuration  int      `json:"duracionTurno" bson:"duracionTurno" validate:"omitempty,min=1,max=480"`
	NightFromHour *int     `json:"nocturnoDesde" bson:"nocturnoDesde" validate:"omitempty,min=0,max=23"`
	NightPrice    *float64 `json:"precioNocturno" bson:"precioNocturno" validate:"omitempty,min=0"`
}

// DurationMinutes returns the slot duration, coerced to the 60 minute
// default when unset or non-positive so grid generation never divides by
// zero.
func (c *Court) DurationMinutes() int {
	if c.SlotDuration <= 0 {
		return 60
	}
	return c.SlotDuration
}

type CourtUpdate struct {
	Name          string    `json:"nombre,omitempty" validate:"omitempty,min=2,max=100"`
	Sport         string    `json:"deporte,omitempty" validate:"omitempty,min=2,max=40"`
	BasePrice     *float64  `json:"precio,omitempty" validate:"omitempty,gt=0"`
	OpenFrom      string    `json:"horaDesde,omitempty" validate:"omitempty,hhmm"`
	OpenUntil     string    `json:"horaHasta,omitempty" validate:"omitempty,hhmm"`
	Weekdays      *[]string `json:"diasDisponibles,omitempty" validate:"omitempty,dive,weekday_es"`
	SlotDuration  *int      `json:"duracionTurno,omitempty" validate:"omitempty,min=1,max=480"`
	NightFromHour *int      `json:"nocturnoDesde,omitempty" validate:"omitempty,min=0,max=23"`
	NightPrice    *float64  `json:"precioNocturno,omitempty" validate:"omitempty,min=0"`
}
