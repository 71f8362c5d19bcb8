package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facturalia/facturas-api/internal/application/dto"
	"github.com/facturalia/facturas-api/internal/domain"
	domainbilling "github.com/facturalia/facturas-api/internal/domain/billing"
	"github.com/facturalia/facturas-api/internal/domain/entity"
	"github.com/facturalia/facturas-api/internal/domain/repository"
)

const dateLayout = "2006-01-02"

// TransactionUseCase casos de uso de movimientos (ingresos y gastos).
type TransactionUseCase struct {
	repo repository.TransactionRepository
}

// NewTransactionUseCase construye el caso de uso.
func NewTransactionUseCase(repo repository.TransactionRepository) *TransactionUseCase {
	return &TransactionUseCase{repo: repo}
}

// Create registra un movimiento. El importe se guarda positivo; el signo lo da
// el tipo (income/expense).
func (uc *TransactionUseCase) Create(companyID string, in dto.CreateTransactionRequest) (*dto.TransactionResponse, error) {
	if in.Type != entity.TransactionIncome && in.Type != entity.TransactionExpense {
		return nil, fmt.Errorf("%w: tipo debe ser income o expense", domain.ErrInvalidInput)
	}
	if in.Concept == "" {
		return nil, fmt.Errorf("%w: concepto requerido", domain.ErrInvalidInput)
	}
	amount := domainbilling.CoerceDecimal(in.Amount)
	if !amount.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: importe debe ser positivo", domain.ErrInvalidInput)
	}
	date := time.Now()
	if in.Date != "" {
		var err error
		if date, err = time.Parse(dateLayout, in.Date); err != nil {
			return nil, fmt.Errorf("%w: fecha inválida", domain.ErrInvalidInput)
		}
	}
	now := time.Now()
	tx := &entity.Transaction{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Type:      in.Type,
		Concept:   in.Concept,
		Category:  in.Category,
		Amount:    amount.Round(2),
		Date:      date,
		InvoiceID: in.InvoiceID,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(tx); err != nil {
		return nil, err
	}
	return toTransactionResponse(tx), nil
}

// Get obtiene un movimiento verificando pertenencia.
func (uc *TransactionUseCase) Get(companyID, id string) (*dto.TransactionResponse, error) {
	tx, err := uc.repo.GetByID(id)
	if err != nil || tx == nil {
		return nil, domain.ErrNotFound
	}
	if tx.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return toTransactionResponse(tx), nil
}

// List lista movimientos con filtros de tipo, categoría y fechas.
func (uc *TransactionUseCase) List(companyID string, f repository.TransactionFilter) ([]*dto.TransactionResponse, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	list, err := uc.repo.ListByCompany(companyID, f)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.TransactionResponse, 0, len(list))
	for _, tx := range list {
		out = append(out, toTransactionResponse(tx))
	}
	return out, nil
}

// Update modifica un movimiento.
func (uc *TransactionUseCase) Update(companyID, id string, in dto.UpdateTransactionRequest) (*dto.TransactionResponse, error) {
	tx, err := uc.repo.GetByID(id)
	if err != nil || tx == nil {
		return nil, domain.ErrNotFound
	}
	if tx.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	if in.Type != "" {
		if in.Type != entity.TransactionIncome && in.Type != entity.TransactionExpense {
			return nil, fmt.Errorf("%w: tipo debe ser income o expense", domain.ErrInvalidInput)
		}
		tx.Type = in.Type
	}
	if in.Concept != "" {
		tx.Concept = in.Concept
	}
	if in.Category != "" {
		tx.Category = in.Category
	}
	if len(in.Amount) > 0 {
		amount := domainbilling.CoerceDecimal(in.Amount)
		if !amount.GreaterThan(decimal.Zero) {
			return nil, fmt.Errorf("%w: importe debe ser positivo", domain.ErrInvalidInput)
		}
		tx.Amount = amount.Round(2)
	}
	if in.Date != "" {
		d, err := time.Parse(dateLayout, in.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: fecha inválida", domain.ErrInvalidInput)
		}
		tx.Date = d
	}
	if in.Notes != "" {
		tx.Notes = in.Notes
	}
	tx.UpdatedAt = time.Now()
	if err := uc.repo.Update(tx); err != nil {
		return nil, err
	}
	return toTransactionResponse(tx), nil
}

// Delete elimina un movimiento.
func (uc *TransactionUseCase) Delete(companyID, id string) error {
	tx, err := uc.repo.GetByID(id)
	if err != nil || tx == nil {
		return domain.ErrNotFound
	}
	if tx.CompanyID != companyID {
		return domain.ErrForbidden
	}
	return uc.repo.Delete(id)
}

func toTransactionResponse(tx *entity.Transaction) *dto.TransactionResponse {
	return &dto.TransactionResponse{
		ID:        tx.ID,
		CompanyID: tx.CompanyID,
		Type:      tx.Type,
		Concept:   tx.Concept,
		Category:  tx.Category,
		Amount:    tx.Amount.StringFixed(2),
		Date:      tx.Date.Format(dateLayout),
		InvoiceID: tx.InvoiceID,
		Notes:     tx.Notes,
	}
}
