package entity

import "time"

// Company representa el negocio emisor (tenant del sistema).
type Company struct {
	ID        string
	Name      string
	TaxID     string // CIF o NIF del emisor
	Address   string
	Phone     string
	Email     string
	Status    string // active, suspended, inactive
	CreatedAt time.Time
	UpdatedAt time.Time
}
