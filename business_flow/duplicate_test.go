package businessflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercat-labs/loyalty-platform/models"
	"github.com/mercat-labs/loyalty-platform/utils"
)

func TestParseTicketDate(t *testing.T) {
	tests := []struct {
		name      string
		fecha     string
		hora      *string
		expected  time.Time
		expectErr bool
	}{
		{
			name:     "date with embedded time",
			fecha:    "15/03/2025 18:42",
			expected: time.Date(2025, 3, 15, 18, 42, 0, 0, time.UTC),
		},
		{
			name:     "date only",
			fecha:    "15/03/2025",
			expected: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "separate hora is combined",
			fecha:    "01/12/2024",
			hora:     utils.ToPtr("09:05"),
			expected: time.Date(2024, 12, 1, 9, 5, 0, 0, time.UTC),
		},
		{
			name:     "hora ignored when fecha already carries time",
			fecha:    "01/12/2024 09:05",
			hora:     utils.ToPtr("23:59"),
			expected: time.Date(2024, 12, 1, 9, 5, 0, 0, time.UTC),
		},
		{
			name:      "unrecognized layout",
			fecha:     "2025-03-15",
			expectErr: true,
		},
		{
			name:      "empty fecha",
			fecha:     "",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParseTicketDate(tt.fecha, tt.hora)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(parsed))
		})
	}
}

func TestProductBagHash(t *testing.T) {
	bag := models.ProductList{
		{Name: "Tomates", Quantity: "2", Price: "3.50"},
		{Name: "Pan", Quantity: "1", Price: "1.20"},
	}
	reordered := models.ProductList{
		{Name: "Pan", Quantity: "1", Price: "1.20"},
		{Name: "Tomates", Quantity: "2", Price: "3.50"},
	}
	different := models.ProductList{
		{Name: "Pan", Quantity: "2", Price: "1.20"},
		{Name: "Tomates", Quantity: "2", Price: "3.50"},
	}

	assert.Equal(t, ProductBagHash(bag), ProductBagHash(reordered), "order must not matter")
	assert.NotEqual(t, ProductBagHash(bag), ProductBagHash(different), "quantity change must matter")

	padded := models.ProductList{
		{Name: " Tomates ", Quantity: "2 ", Price: " 3.50"},
		{Name: "Pan", Quantity: "1", Price: "1.20"},
	}
	assert.Equal(t, ProductBagHash(bag), ProductBagHash(padded), "whitespace must not matter")
}

func TestFirstDuplicate(t *testing.T) {
	products := models.ProductList{
		{Name: "Pan", Quantity: "1", Price: "1.20"},
	}
	prior := PriorTicket{
		Date:     time.Date(2025, 3, 15, 18, 40, 0, 0, time.UTC),
		BagHash:  ProductBagHash(products),
		TicketID: "11111111-1111-1111-1111-111111111111",
	}

	t.Run("within window and same bag", func(t *testing.T) {
		match := FirstDuplicate("15/03/2025 18:42", nil, products, []PriorTicket{prior})
		require.NotNil(t, match)
		assert.Equal(t, prior.TicketID, match.TicketID)
	})

	t.Run("outside the five minute window", func(t *testing.T) {
		match := FirstDuplicate("15/03/2025 18:46", nil, products, []PriorTicket{prior})
		assert.Nil(t, match)
	})

	t.Run("same time different products", func(t *testing.T) {
		other := models.ProductList{{Name: "Leche", Quantity: "1", Price: "0.95"}}
		match := FirstDuplicate("15/03/2025 18:40", nil, other, []PriorTicket{prior})
		assert.Nil(t, match)
	})

	t.Run("unparseable candidate date never matches", func(t *testing.T) {
		match := FirstDuplicate("not-a-date", nil, products, []PriorTicket{prior})
		assert.Nil(t, match)
	})

	t.Run("candidate earlier than prior still compares", func(t *testing.T) {
		match := FirstDuplicate("15/03/2025 18:37", nil, products, []PriorTicket{prior})
		require.NotNil(t, match)
		assert.Equal(t, prior.TicketID, match.TicketID)
	})
}

func TestPriorTicketFromResult(t *testing.T) {
	t.Run("complete result", func(t *testing.T) {
		result := models.JSONMap{
			"fecha": "15/03/2025",
			"hora":  "18:40",
			"productos": []any{
				map[string]any{"nombre": "Pan", "cantidad": "1", "precio": "1.20"},
			},
		}

		prior, ok := PriorTicketFromResult("abc", result)
		require.True(t, ok)
		assert.Equal(t, "abc", prior.TicketID)
		assert.Equal(t, time.Date(2025, 3, 15, 18, 40, 0, 0, time.UTC), prior.Date)
		assert.Equal(t, ProductBagHash(models.ProductList{{Name: "Pan", Quantity: "1", Price: "1.20"}}), prior.BagHash)
	})

	t.Run("missing fecha", func(t *testing.T) {
		_, ok := PriorTicketFromResult("abc", models.JSONMap{"productos": []any{}})
		assert.False(t, ok)
	})

	t.Run("missing productos", func(t *testing.T) {
		_, ok := PriorTicketFromResult("abc", models.JSONMap{"fecha": "15/03/2025"})
		assert.False(t, ok)
	})

	t.Run("nil result", func(t *testing.T) {
		_, ok := PriorTicketFromResult("abc", nil)
		assert.False(t, ok)
	})
}
