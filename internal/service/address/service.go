// Package address manages the delivery address book and the
// province/district/ward lookup it is validated against.
package address

import (
	"context"
	"errors"
	"strings"

	"pharmacy-store/internal/domain"
	addressrepo "pharmacy-store/internal/repository/address"
	"pharmacy-store/internal/repository/location"
)

type addressRepo interface {
	List(ctx context.Context, userID string) ([]domain.Address, error)
	Get(ctx context.Context, userID, id string) (*domain.Address, error)
	Create(ctx context.Context, userID string, in addressrepo.Input) (*domain.Address, error)
	Update(ctx context.Context, userID, id string, in addressrepo.Input) (*domain.Address, error)
	Delete(ctx context.Context, userID, id string) error
	SetDefault(ctx context.Context, userID, id string) (*domain.Address, error)
}

type locationRepo interface {
	Provinces(ctx context.Context) ([]domain.Province, error)
	Districts(ctx context.Context, provinceCode string) ([]domain.District, error)
	Wards(ctx context.Context, districtCode string) ([]domain.Ward, error)
	Resolve(ctx context.Context, provinceCode, districtCode, wardCode string) (*location.Resolved, error)
}

type Service struct {
	addresses addressRepo
	locations locationRepo
}

func New(addresses addressRepo, locations locationRepo) *Service {
	return &Service{addresses: addresses, locations: locations}
}

func (s *Service) Provinces(ctx context.Context) ([]domain.Province, error) {
	return s.locations.Provinces(ctx)
}

func (s *Service) Districts(ctx context.Context, provinceCode string) ([]domain.District, error) {
	return s.locations.Districts(ctx, strings.TrimSpace(provinceCode))
}

func (s *Service) Wards(ctx context.Context, districtCode string) ([]domain.Ward, error) {
	return s.locations.Wards(ctx, strings.TrimSpace(districtCode))
}

func (s *Service) List(ctx context.Context, userID string) ([]domain.Address, error) {
	return s.addresses.List(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID, id string) (*domain.Address, error) {
	return s.addresses.Get(ctx, userID, id)
}

func (s *Service) Create(ctx context.Context, userID string, in addressrepo.Input) (*domain.Address, error) {
	in, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.addresses.Create(ctx, userID, in)
}

func (s *Service) Update(ctx context.Context, userID, id string, in addressrepo.Input) (*domain.Address, error) {
	in, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.addresses.Update(ctx, userID, id, in)
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.addresses.Delete(ctx, userID, id)
}

func (s *Service) SetDefault(ctx context.Context, userID, id string) (*domain.Address, error) {
	return s.addresses.SetDefault(ctx, userID, id)
}

func (s *Service) validate(ctx context.Context, in addressrepo.Input) (addressrepo.Input, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Detail = strings.TrimSpace(in.Detail)
	in.ProvinceCode = strings.TrimSpace(in.ProvinceCode)
	in.DistrictCode = strings.TrimSpace(in.DistrictCode)
	in.WardCode = strings.TrimSpace(in.WardCode)

	switch {
	case in.FullName == "":
		return in, domain.Invalidf("fullName", "required")
	case !validPhone(in.Phone):
		return in, domain.Invalidf("phone", "must be 9 to 15 digits")
	case in.Detail == "":
		return in, domain.Invalidf("detail", "required")
	}
	if _, err := s.locations.Resolve(ctx, in.ProvinceCode, in.DistrictCode, in.WardCode); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return in, domain.Invalidf("wardCode", "ward %q is not in district %q of province %q", in.WardCode, in.DistrictCode, in.ProvinceCode)
		}
		return in, err
	}
	return in, nil
}

func validPhone(p string) bool {
	p = strings.TrimPrefix(p, "+")
	if len(p) < 9 || len(p) > 15 {
		return false
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
