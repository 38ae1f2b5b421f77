package schedule

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
	require.NoError(t, db.AutoMigrate(&models.Schedule{}))
	return db
}

func validRequest() *CreateRequest {
	return &CreateRequest{
		Alias:      "nightly-audit",
		Expression: "0 3 * * *",
		DeviceIDs:  []string{uuid.NewString(), uuid.NewString()},
		Commands:   []string{"show version"},
		BatchSize:  2,
	}
}

func TestCreatePersistsTemplate(t *testing.T) {
	db := openTestDB(t)
	svc := Service(context.Background(), db)

	created, err := svc.Create(validRequest())
	require.NoError(t, err)

	var stored models.Schedule
	require.NoError(t, db.First(&stored, "id = ?", created.ID).Error)
	require.Equal(t, "nightly-audit", stored.Alias)
	require.JSONEq(t, `["show version"]`, string(stored.Commands))
}

func TestCreateValidation(t *testing.T) {
	svc := Service(context.Background(), openTestDB(t))

	cases := []struct {
		name   string
		mutate func(*CreateRequest)
	}{
		{"missing alias", func(r *CreateRequest) { r.Alias = "" }},
		{"missing expression", func(r *CreateRequest) { r.Expression = "" }},
		{"no devices", func(r *CreateRequest) { r.DeviceIDs = nil }},
		{"no commands", func(r *CreateRequest) { r.Commands = nil }},
		{"batch size too small", func(r *CreateRequest) { r.BatchSize = 1 }},
		{"bad device id", func(r *CreateRequest) { r.DeviceIDs = []string{"nope"} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(req)
			_, err := svc.Create(req)
			require.Error(t, err)
		})
	}
}

func TestListAndDelete(t *testing.T) {
	svc := Service(context.Background(), openTestDB(t))

	created, err := svc.Create(validRequest())
	require.NoError(t, err)

	schedules, err := svc.List()
	require.NoError(t, err)
	require.Len(t, schedules, 1)

	require.NoError(t, svc.Delete(created.ID))

	schedules, err = svc.List()
	require.NoError(t, err)
	require.Empty(t, schedules)
}
