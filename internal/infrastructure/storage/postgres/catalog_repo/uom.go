package catalog_repo

import (
	"stockflow/internal/domain/catalogs/uom"
	"stockflow/internal/infrastructure/storage/postgres"
)

const uomTable = "cat_uoms"

// UoMRepo implements uom.Repository.
type UoMRepo struct {
	*BaseCatalogRepo[*uom.UoM]
}

// NewUoMRepo creates a new unit of measure repository.
func NewUoMRepo(txManager *postgres.TxManager) *UoMRepo {
	return &UoMRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			uomTable,
			postgres.ExtractDBColumns[uom.UoM](),
			func() *uom.UoM { return &uom.UoM{} },
		),
	}
}
