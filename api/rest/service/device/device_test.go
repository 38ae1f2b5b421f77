package device

import (
	"context"
	"testing"

	"github.com/convoy-cloud/convoy/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Device{}))
	return db
}

func TestCreateAppliesProtocolDefaults(t *testing.T) {
	svc := Service(context.Background(), openTestDB(t))

	d, err := svc.Create(&CreateRequest{
		Name:     "core-rtr-01",
		Address:  "10.1.0.1",
		Protocol: models.ProtocolSSH,
		Country:  "de",
	})
	require.NoError(t, err)
	require.Equal(t, 22, d.Port)

	d, err = svc.Create(&CreateRequest{
		Name:     "legacy-sw-01",
		Address:  "10.1.0.2",
		Protocol: models.ProtocolTelnet,
		Country:  "fr",
	})
	require.NoError(t, err)
	require.Equal(t, 23, d.Port)
}

func TestCreateRejectsInvalidRecords(t *testing.T) {
	svc := Service(context.Background(), openTestDB(t))

	_, err := svc.Create(&CreateRequest{Address: "10.0.0.1", Protocol: models.ProtocolSSH})
	require.Error(t, err)

	_, err = svc.Create(&CreateRequest{Name: "r1", Protocol: models.ProtocolSSH})
	require.Error(t, err)

	_, err = svc.Create(&CreateRequest{Name: "r1", Address: "10.0.0.1", Protocol: "ftp"})
	require.Error(t, err)
}

func TestListFiltersByCountry(t *testing.T) {
	db := openTestDB(t)
	svc := Service(context.Background(), db)

	for _, country := range []string{"de", "de", "fr"} {
		_, err := svc.Create(&CreateRequest{
			Name:     uuid.NewString()[:8] + "-rtr",
			Address:  "10.0.0.1",
			Protocol: models.ProtocolSSH,
			Country:  country,
		})
		require.NoError(t, err)
	}

	devices, err := svc.List(&ListRequest{Country: "de"})
	require.NoError(t, err)
	require.Len(t, devices, 2)

	devices, err = svc.List(&ListRequest{})
	require.NoError(t, err)
	require.Len(t, devices, 3)
}

func TestGetAndDelete(t *testing.T) {
	svc := Service(context.Background(), openTestDB(t))

	created, err := svc.Create(&CreateRequest{
		Name:     "edge-01",
		Address:  "10.2.0.1",
		Protocol: models.ProtocolSSH,
	})
	require.NoError(t, err)

	got, err := svc.Get(created.ID)
	require.NoError(t, err)
	require.Equal(t, "edge-01", got.Name)

	require.NoError(t, svc.Delete(created.ID))

	_, err = svc.Get(created.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
