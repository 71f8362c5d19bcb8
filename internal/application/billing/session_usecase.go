package billing

import (
	"sync"

	"github.com/google/uuid"

	"github.com/facturalia/facturas-api/internal/application/dto"
	"github.com/facturalia/facturas-api/internal/domain"
	domainbilling "github.com/facturalia/facturas-api/internal/domain/billing"
)

// SessionUseCase gestiona las sesiones de edición de facturas en memoria.
// Cada sesión envuelve una SubmitGuard: el frontend abre sesión al montar el
// formulario, notifica la apertura/cierre de diálogos hijos y referencia la
// sesión al enviar. Un envío con diálogo abierto se rechaza en el servidor,
// no solo en el cliente.
type SessionUseCase struct {
	mu       sync.Mutex
	sessions map[string]*domainbilling.SubmitGuard
}

// NewSessionUseCase construye el registro de sesiones.
func NewSessionUseCase() *SessionUseCase {
	return &SessionUseCase{sessions: make(map[string]*domainbilling.SubmitGuard)}
}

// Open crea una sesión nueva en estado Editing.
func (uc *SessionUseCase) Open() (*dto.SessionResponse, error) {
	guard := domainbilling.NewSubmitGuard()
	if err := guard.Begin(); err != nil {
		return nil, err
	}
	id := uuid.New().String()
	uc.mu.Lock()
	uc.sessions[id] = guard
	uc.mu.Unlock()
	return &dto.SessionResponse{ID: id, State: guard.State().String()}, nil
}

// OpenDialog registra la apertura de un diálogo hijo (ej. alta de cliente inline).
func (uc *SessionUseCase) OpenDialog(id string) (*dto.SessionResponse, error) {
	return uc.transition(id, func(g *domainbilling.SubmitGuard) error { return g.OpenChildDialog() })
}

// CloseDialog registra el cierre de un diálogo hijo.
func (uc *SessionUseCase) CloseDialog(id string) (*dto.SessionResponse, error) {
	return uc.transition(id, func(g *domainbilling.SubmitGuard) error { return g.CloseChildDialog() })
}

// Submit intenta la transición a Submitting. ErrSubmitBlocked si hay diálogo
// abierto o un envío en curso.
func (uc *SessionUseCase) Submit(id string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	guard, ok := uc.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	return guard.Submit()
}

// Finish cierra el ciclo de envío y descarta la sesión.
func (uc *SessionUseCase) Finish(id string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if guard, ok := uc.sessions[id]; ok {
		_ = guard.Finish()
		delete(uc.sessions, id)
	}
}

// Abort descarta la sesión (el usuario cerró el formulario sin enviar).
func (uc *SessionUseCase) Abort(id string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if guard, ok := uc.sessions[id]; ok {
		guard.Abort()
		delete(uc.sessions, id)
	}
}

// Get devuelve el estado actual de la sesión.
func (uc *SessionUseCase) Get(id string) (*dto.SessionResponse, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	guard, ok := uc.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &dto.SessionResponse{ID: id, State: guard.State().String()}, nil
}

func (uc *SessionUseCase) transition(id string, fn func(*domainbilling.SubmitGuard) error) (*dto.SessionResponse, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	guard, ok := uc.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := fn(guard); err != nil {
		return nil, err
	}
	return &dto.SessionResponse{ID: id, State: guard.State().String()}, nil
}
