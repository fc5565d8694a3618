package uom

import (
	"stockflow/internal/domain"
)

// Repository defines the interface for UoM persistence.
type Repository interface {
	domain.CatalogRepository[*UoM]
}
