package cron

import (
	"context"
	"testing"

	"github.com/convoy-cloud/convoy/internal/engine"
	"github.com/convoy-cloud/convoy/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type fakeSubmitter struct {
	requests []*engine.CreateRequest
}

func (f *fakeSubmitter) Create(_ context.Context, req *engine.CreateRequest) (*engine.CreateResponse, error) {
	f.requests = append(f.requests, req)
	return &engine.CreateResponse{JobID: uuid.New(), TotalBatches: 1}, nil
}

func testSchedule(expr string) *models.Schedule {
	return &models.Schedule{
		ID:         uuid.New(),
		Alias:      "nightly-audit",
		Expression: expr,
		DeviceIDs:  datatypes.JSON(`["` + uuid.NewString() + `","` + uuid.NewString() + `"]`),
		Commands:   datatypes.JSON(`["show version","show ip route"]`),
		BatchSize:  2,
	}
}

func TestNewParsesStoredSchedule(t *testing.T) {
	c, err := New(testSchedule("0 3 * * *"), &fakeSubmitter{})
	require.NoError(t, err)
	require.Len(t, c.request.DeviceIDs, 2)
	require.Equal(t, []string{"show version", "show ip route"}, c.request.Commands)
}

func TestNewRejectsBadExpression(t *testing.T) {
	_, err := New(testSchedule("not a cron"), &fakeSubmitter{})
	require.Error(t, err)
}

func TestNewRejectsBadDeviceID(t *testing.T) {
	s := testSchedule("0 3 * * *")
	s.DeviceIDs = datatypes.JSON(`["not-a-uuid"]`)
	_, err := New(s, &fakeSubmitter{})
	require.Error(t, err)
}

func TestFireSubmitsTemplate(t *testing.T) {
	sub := &fakeSubmitter{}
	c, err := New(testSchedule("0 3 * * *"), sub)
	require.NoError(t, err)

	require.NoError(t, c.Fire(context.Background()))
	require.Len(t, sub.requests, 1)
	require.Equal(t, 2, sub.requests[0].BatchSize)
}
