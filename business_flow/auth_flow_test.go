package businessflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercat-labs/loyalty-platform/models"
)

func TestRegistrationRole(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		expected  string
		expectErr bool
	}{
		{name: "empty defaults to user", requested: "", expected: models.RoleUser},
		{name: "explicit user", requested: models.RoleUser, expected: models.RoleUser},
		{name: "vendor rejected", requested: models.RoleVendor, expectErr: true},
		{name: "admin rejected", requested: models.RoleAdmin, expectErr: true},
		{name: "unknown role rejected", requested: "superuser", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, err := registrationRole(tt.requested)
			if tt.expectErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidRole)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, role)
		})
	}
}
