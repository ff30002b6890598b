package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository reads and updates catalog products
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]Product, error)
	Save(ctx context.Context, p *Product) error
}
