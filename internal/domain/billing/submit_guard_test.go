package billing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturalia/facturas-api/internal/domain/billing"
)

func TestSubmitGuard_CicloNormal(t *testing.T) {
	g := billing.NewSubmitGuard()
	assert.Equal(t, billing.StateIdle, g.State())

	require.NoError(t, g.Begin())
	assert.Equal(t, billing.StateEditing, g.State())

	require.NoError(t, g.Submit())
	assert.Equal(t, billing.StateSubmitting, g.State())

	require.NoError(t, g.Finish())
	assert.Equal(t, billing.StateIdle, g.State())
}

// El caso que motivó la guarda: con un diálogo hijo abierto (alta de cliente
// inline) el envío debe rechazarse, no dispararse solo.
func TestSubmitGuard_DialogoAbiertoBloqueaEnvio(t *testing.T) {
	g := billing.NewSubmitGuard()
	require.NoError(t, g.Begin())
	require.NoError(t, g.OpenChildDialog())

	err := g.Submit()

	assert.ErrorIs(t, err, billing.ErrSubmitBlocked)
	assert.Equal(t, billing.StateAwaitingChildDialog, g.State(), "el estado no cambia tras un envío bloqueado")
}

func TestSubmitGuard_DialogosAnidados(t *testing.T) {
	g := billing.NewSubmitGuard()
	require.NoError(t, g.Begin())
	require.NoError(t, g.OpenChildDialog())
	require.NoError(t, g.OpenChildDialog()) // el diálogo hijo abre otro

	require.NoError(t, g.CloseChildDialog())
	assert.ErrorIs(t, g.Submit(), billing.ErrSubmitBlocked, "queda un diálogo abierto")

	require.NoError(t, g.CloseChildDialog())
	assert.NoError(t, g.Submit(), "sin diálogos abiertos el envío procede")
}

func TestSubmitGuard_EnvioDobleBloqueado(t *testing.T) {
	g := billing.NewSubmitGuard()
	require.NoError(t, g.Begin())
	require.NoError(t, g.Submit())

	assert.ErrorIs(t, g.Submit(), billing.ErrSubmitBlocked, "doble click no genera dos envíos")
}

func TestSubmitGuard_TransicionesInvalidas(t *testing.T) {
	g := billing.NewSubmitGuard()

	assert.ErrorIs(t, g.Submit(), billing.ErrInvalidTransition, "submit sin begin")
	assert.ErrorIs(t, g.CloseChildDialog(), billing.ErrInvalidTransition)
	assert.ErrorIs(t, g.Finish(), billing.ErrInvalidTransition)
	assert.ErrorIs(t, g.OpenChildDialog(), billing.ErrInvalidTransition, "diálogo sin formulario abierto")

	require.NoError(t, g.Begin())
	assert.ErrorIs(t, g.Begin(), billing.ErrInvalidTransition, "begin dos veces")
}

func TestSubmitGuard_AbortDesdeCualquierEstado(t *testing.T) {
	g := billing.NewSubmitGuard()
	require.NoError(t, g.Begin())
	require.NoError(t, g.OpenChildDialog())

	g.Abort()

	assert.Equal(t, billing.StateIdle, g.State())
	require.NoError(t, g.Begin(), "tras abortar se puede volver a editar")
}
