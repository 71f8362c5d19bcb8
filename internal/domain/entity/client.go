package entity

import "time"

// Client representa un cliente de la empresa (receptor de facturas y presupuestos).
type Client struct {
	ID        string
	CompanyID string
	Name      string
	TaxID     string // NIF o CIF del cliente
	Email     string
	Phone     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
