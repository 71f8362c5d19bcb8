package repository

import (
	"time"

	"github.com/facturalia/facturas-api/internal/domain/entity"
)

// TransactionFilter criterios de listado de movimientos.
type TransactionFilter struct {
	Type     string // income, expense o vacío
	Category string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// TransactionRepository define el puerto de persistencia para movimientos
// (ingresos y gastos).
type TransactionRepository interface {
	Create(tx *entity.Transaction) error
	GetByID(id string) (*entity.Transaction, error)
	ListByCompany(companyID string, f TransactionFilter) ([]*entity.Transaction, error)
	Update(tx *entity.Transaction) error
	Delete(id string) error
}
