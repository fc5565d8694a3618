package catalog_repo

import (
	"stockflow/internal/domain/catalogs/partner"
	"stockflow/internal/infrastructure/storage/postgres"
)

const partnerTable = "cat_partners"

// PartnerRepo implements partner.Repository.
type PartnerRepo struct {
	*BaseCatalogRepo[*partner.Partner]
}

// NewPartnerRepo creates a new partner repository.
func NewPartnerRepo(txManager *postgres.TxManager) *PartnerRepo {
	return &PartnerRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			partnerTable,
			postgres.ExtractDBColumns[partner.Partner](),
			func() *partner.Partner { return &partner.Partner{} },
		),
	}
}
