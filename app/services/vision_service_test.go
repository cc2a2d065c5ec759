// Package services provides external service integrations and technical concerns like tokens and delivery channels
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtraction(t *testing.T) {
	t.Run("complete extraction", func(t *testing.T) {
		raw := `{
			"fecha": "15/03/2025",
			"hora": "18:42",
			"tienda": "Carnisseria Pep",
			"total": "23,50",
			"tipo_ticket": "compra",
			"productos": [
				{"nombre": "Pollastre", "cantidad": "1", "precio": "8.50"},
				{"nombre": "Botifarra", "cantidad": "2", "precio": "7.50"}
			],
			"procesado_correctamente": true
		}`

		result := ParseExtraction(raw)
		require.True(t, result.Success)
		require.NotNil(t, result.Fecha)
		assert.Equal(t, "15/03/2025", *result.Fecha)
		require.NotNil(t, result.Tienda)
		assert.Equal(t, "Carnisseria Pep", *result.Tienda)
		assert.Len(t, result.Productos, 2)
		assert.Equal(t, "Pollastre", result.Productos[0].Name)
		assert.True(t, result.HasStructuralFields())
	})

	t.Run("object embedded in prose", func(t *testing.T) {
		raw := "Here is the extraction:\n```json\n" +
			`{"fecha": "01/01/2025", "productos": [{"nombre": "Pa"}]}` +
			"\n```\nLet me know if you need anything else."

		result := ParseExtraction(raw)
		require.True(t, result.Success)
		require.NotNil(t, result.Fecha)
		assert.Equal(t, "01/01/2025", *result.Fecha)
		assert.Len(t, result.Productos, 1)
	})

	t.Run("model reports failure", func(t *testing.T) {
		raw := `{"procesado_correctamente": false, "error": "imatge il·legible"}`

		result := ParseExtraction(raw)
		assert.False(t, result.Success)
		assert.Equal(t, "imatge il·legible", result.Error)
		assert.False(t, result.HasStructuralFields())
	})

	t.Run("no JSON object", func(t *testing.T) {
		result := ParseExtraction("the model returned nothing useful")
		assert.False(t, result.Success)
		assert.NotEmpty(t, result.Error)
		assert.Empty(t, result.Productos)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		result := ParseExtraction(`{"fecha": "01/01/2025",`)
		assert.False(t, result.Success)
		assert.NotEmpty(t, result.Error)
	})

	t.Run("braces inside strings are skipped", func(t *testing.T) {
		raw := `{"fecha": "01/01/2025", "tienda": "Ca l'Anna {centre}", "productos": []}`

		result := ParseExtraction(raw)
		require.True(t, result.Success)
		require.NotNil(t, result.Tienda)
		assert.Equal(t, "Ca l'Anna {centre}", *result.Tienda)
	})

	t.Run("missing fields become nil", func(t *testing.T) {
		result := ParseExtraction(`{"total": "5.00"}`)
		require.True(t, result.Success)
		assert.Nil(t, result.Fecha)
		assert.Nil(t, result.Tienda)
		assert.NotNil(t, result.Productos)
		assert.Empty(t, result.Productos)
		assert.False(t, result.HasStructuralFields())
	})
}

func TestHasStructuralFields(t *testing.T) {
	fecha := "01/01/2025"

	complete := ParseExtraction(`{"fecha": "01/01/2025", "productos": [{"nombre": "Pa"}]}`)
	assert.True(t, complete.HasStructuralFields())

	noProducts := &ExtractionResult{Fecha: &fecha, Success: true}
	assert.False(t, noProducts.HasStructuralFields())

	failed := &ExtractionResult{Fecha: &fecha, Success: false}
	assert.False(t, failed.HasStructuralFields())
}
