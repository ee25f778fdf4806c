package location

import (
	"context"

	"pharmacy-store/internal/domain"
)

// Resolved is a ward together with its parents.
type Resolved struct {
	Province domain.Province
	District domain.District
	Ward     domain.Ward
}

type Repository interface {
	Provinces(ctx context.Context) ([]domain.Province, error)
	Districts(ctx context.Context, provinceCode string) ([]domain.District, error)
	Wards(ctx context.Context, districtCode string) ([]domain.Ward, error)
	// Resolve returns ErrNotFound unless the ward belongs to the district
	// and the district to the province.
	Resolve(ctx context.Context, provinceCode, districtCode, wardCode string) (*Resolved, error)
	UpsertProvince(ctx context.Context, p domain.Province) error
	UpsertDistrict(ctx context.Context, d domain.District) error
	UpsertWard(ctx context.Context, w domain.Ward) error
}
