package billing

import "fmt"

// Máquina de estados del envío de una factura en edición. Sustituye los flags
// globales del sistema anterior (userInitiatedSubmit, blockAllSubmits, eventos
// de ventana): el envío solo ocurre por acción explícita del usuario, nunca
// como efecto colateral de un diálogo hijo (ej. alta de cliente inline).

// SubmitState estado actual de la sesión de edición.
type SubmitState int

const (
	StateIdle SubmitState = iota
	StateEditing
	StateAwaitingChildDialog
	StateSubmitting
)

// String para logs y mensajes de error.
func (s SubmitState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEditing:
		return "editing"
	case StateAwaitingChildDialog:
		return "awaiting_child_dialog"
	case StateSubmitting:
		return "submitting"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// SubmitGuard controla las transiciones válidas. No es seguro para uso
// concurrente: cada sesión de edición posee su propia instancia y el caller
// serializa el acceso (SessionUseCase usa un mutex por registro).
type SubmitGuard struct {
	state SubmitState
	// diálogos hijos anidados abiertos (cliente inline puede abrir otro diálogo)
	openDialogs int
}

// NewSubmitGuard crea la guarda en estado Idle.
func NewSubmitGuard() *SubmitGuard {
	return &SubmitGuard{state: StateIdle}
}

// State devuelve el estado actual.
func (g *SubmitGuard) State() SubmitState { return g.state }

// Begin pasa de Idle a Editing (el usuario abrió el formulario).
func (g *SubmitGuard) Begin() error {
	if g.state != StateIdle {
		return fmt.Errorf("%w: begin desde %s", ErrInvalidTransition, g.state)
	}
	g.state = StateEditing
	return nil
}

// OpenChildDialog registra la apertura de un diálogo hijo; cualquier intento de
// envío queda bloqueado hasta cerrar todos los diálogos.
func (g *SubmitGuard) OpenChildDialog() error {
	if g.state != StateEditing && g.state != StateAwaitingChildDialog {
		return fmt.Errorf("%w: open_dialog desde %s", ErrInvalidTransition, g.state)
	}
	g.openDialogs++
	g.state = StateAwaitingChildDialog
	return nil
}

// CloseChildDialog cierra un diálogo hijo; al cerrar el último se vuelve a Editing.
func (g *SubmitGuard) CloseChildDialog() error {
	if g.state != StateAwaitingChildDialog {
		return fmt.Errorf("%w: close_dialog desde %s", ErrInvalidTransition, g.state)
	}
	g.openDialogs--
	if g.openDialogs <= 0 {
		g.openDialogs = 0
		g.state = StateEditing
	}
	return nil
}

// Submit solo es válido desde Editing. Desde AwaitingChildDialog devuelve
// ErrSubmitBlocked: ese era exactamente el envío fantasma del sistema anterior.
func (g *SubmitGuard) Submit() error {
	switch g.state {
	case StateEditing:
		g.state = StateSubmitting
		return nil
	case StateAwaitingChildDialog, StateSubmitting:
		return ErrSubmitBlocked
	default:
		return fmt.Errorf("%w: submit desde %s", ErrInvalidTransition, g.state)
	}
}

// Finish cierra el ciclo tras persistir (o fallar) el envío y vuelve a Idle.
func (g *SubmitGuard) Finish() error {
	if g.state != StateSubmitting {
		return fmt.Errorf("%w: finish desde %s", ErrInvalidTransition, g.state)
	}
	g.state = StateIdle
	return nil
}

// Abort vuelve a Idle desde cualquier estado (el usuario descartó el formulario).
func (g *SubmitGuard) Abort() {
	g.state = StateIdle
	g.openDialogs = 0
}
