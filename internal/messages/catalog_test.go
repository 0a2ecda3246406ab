package messages

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCatalogSelectsAcceptedLanguage(t *testing.T) {
	catalog, err := NewCatalog("en")
	require.NoError(t, err)
	require.Len(t, catalog.Languages(), 2)

	require.Equal(t, "Voting is not open for this country and year.", catalog.Message("", "voting_closed"))
	require.Equal(t, "La votación no está abierta para este país y año.", catalog.Message("es-AR,es;q=0.9,en;q=0.8", "voting_closed"))
	require.Equal(t, "Sign in to continue.", catalog.Message("fr-FR", "unauthorized"))
}

func TestCatalogReturnsUnknownIDs(t *testing.T) {
	catalog, err := NewCatalog("not a language")
	require.NoError(t, err)
	require.Equal(t, "mystery", catalog.Message("en", "mystery"))

	var empty *Catalog
	require.Equal(t, "voting_closed", empty.Message("en", "voting_closed"))
}
