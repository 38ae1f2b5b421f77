package inventory

import (
	"context"

	"github.com/convoy-cloud/convoy/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reader is the narrow view of the inventory the engine
// consumes. The engine copies the returned fields into the
// job at creation time and never writes back.
type Reader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Device, error)
}

type reader struct {
	db *gorm.DB
}

// NewReader wraps a gorm connection as an inventory
// Reader.
func NewReader(db *gorm.DB) Reader {
	return &reader{db: db}
}

func (r *reader) Get(ctx context.Context, id uuid.UUID) (*models.Device, error) {
	device := &models.Device{ID: id}
	return device, r.db.WithContext(ctx).First(device).Error
}
