package consistency

import (
	"testing"

	"rtl-layout-auditor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obs(role models.Role, page string, x, y, w, h int) models.ElementObservation {
	return models.ElementObservation{
		Role:     role,
		Page:     page,
		Box:      models.Box{X: x, Y: y, Width: w, Height: h},
		Viewport: models.Viewport{Width: 360, Height: 740},
	}
}

func TestPositionStore_RecordStampsPage(t *testing.T) {
	s := NewPositionStore()
	err := s.Record("home", []models.ElementObservation{
		obs(models.RoleHeader, "", 0, 0, 360, 56),
		obs(models.RolePrimaryButton, "", 16, 600, 328, 48),
		obs(models.RolePrimaryButton, "", 16, 660, 328, 48),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"home"}, s.Pages())
	for _, o := range s.Observations() {
		assert.Equal(t, "home", o.Page)
	}
}

func TestPositionStore_RecordRejectsZeroSize(t *testing.T) {
	s := NewPositionStore()
	err := s.Record("home", []models.ElementObservation{
		obs(models.RoleHeader, "", 0, 0, 360, 56),
		obs(models.RoleBackButton, "", 0, 0, 0, 40),
	})
	require.ErrorIs(t, err, ErrInvalidObservation)
	assert.Equal(t, 0, s.Len(), "nothing is recorded when the batch is invalid")
	assert.Empty(t, s.Pages())
}

func TestPositionStore_Reset(t *testing.T) {
	s := NewPositionStore()
	require.NoError(t, s.Record("home", []models.ElementObservation{obs(models.RoleHeader, "", 0, 0, 360, 56)}))
	require.NoError(t, s.Record("settings", []models.ElementObservation{obs(models.RoleHeader, "", 0, 0, 360, 56)}))

	s.Reset()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Pages())

	require.NoError(t, s.Record("home", []models.ElementObservation{obs(models.RoleHeader, "", 0, 0, 360, 56)}))
	assert.Equal(t, []string{"home"}, s.Pages())
}

func TestPositionStore_ByRoleOrder(t *testing.T) {
	s := NewPositionStore()
	require.NoError(t, s.Record("home", []models.ElementObservation{
		obs(models.RoleTabBar, "", 0, 680, 360, 60),
		obs(models.RoleHeader, "", 0, 0, 360, 56),
	}))
	require.NoError(t, s.Record("settings", []models.ElementObservation{
		obs(models.RoleHeader, "", 0, 0, 360, 56),
		obs(models.RoleBackButton, "", 320, 8, 40, 40),
	}))

	groups := s.ByRole()
	require.Len(t, groups, 3)
	assert.Equal(t, models.RoleTabBar, groups[0].Role)
	assert.Equal(t, models.RoleHeader, groups[1].Role)
	assert.Equal(t, models.RoleBackButton, groups[2].Role)
	assert.Len(t, groups[1].Observations, 2)
	assert.Equal(t, "home", groups[1].Observations[0].Page)
	assert.Equal(t, "settings", groups[1].Observations[1].Page)
}

func TestPositionStore_PageObservations(t *testing.T) {
	s := NewPositionStore()
	require.NoError(t, s.Record("home", []models.ElementObservation{obs(models.RoleHeader, "", 0, 0, 360, 56)}))
	require.NoError(t, s.Record("settings", []models.ElementObservation{
		obs(models.RoleHeader, "", 0, 0, 360, 56),
		obs(models.RoleTabBar, "", 0, 680, 360, 60),
	}))

	assert.Len(t, s.PageObservations("settings"), 2)
	assert.Len(t, s.PageObservations("home"), 1)
	assert.Empty(t, s.PageObservations("missing"))
}
