package catalog

import "github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"

var (
	ErrProductNotFound = shared.NewDomainError("NOT_FOUND", "product not found")
	ErrProductDeleted  = shared.NewDomainError("INVALID_STATE", "product is deleted")
)
