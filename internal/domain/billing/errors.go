package billing

import "errors"

// Errores de la máquina de estados de envío.
var (
	// ErrSubmitBlocked el envío está bloqueado por un diálogo hijo abierto o
	// por un envío ya en curso.
	ErrSubmitBlocked = errors.New("envío bloqueado: hay un diálogo abierto o un envío en curso")
	// ErrInvalidTransition transición no permitida por la máquina de estados.
	ErrInvalidTransition = errors.New("transición de estado inválida")
)
