package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"pharmacy-store/internal/domain"
	"pharmacy-store/internal/logging"
	"pharmacy-store/internal/repository/location"
	"pharmacy-store/internal/repository/lookup"
	"pharmacy-store/internal/repository/product"
	"pharmacy-store/internal/repository/statusorder"
	"pharmacy-store/internal/repository/user"
)

// Options controls the admin account created by Apply.
type Options struct {
	AdminEmail    string
	AdminPassword string
}

type statusSeed struct {
	Name  string
	State domain.OrderState
}

var statuses = []statusSeed{
	{Name: "Chờ xác nhận", State: domain.StatePending},
	{Name: "Đã thanh toán", State: domain.StatePaid},
	{Name: "Đang giao hàng", State: domain.StateShipped},
	{Name: "Đã giao hàng", State: domain.StateCompleted},
	{Name: "Đã huỷ", State: domain.StateCancelled},
}

type locationSeed struct {
	Province domain.Province
	District domain.District
	Wards    []domain.Ward
}

var locations = []locationSeed{
	{
		Province: domain.Province{Code: "79", Name: "Thành phố Hồ Chí Minh"},
		District: domain.District{Code: "760", ProvinceCode: "79", Name: "Quận 1"},
		Wards: []domain.Ward{
			{Code: "26734", DistrictCode: "760", Name: "Phường Tân Định"},
			{Code: "26740", DistrictCode: "760", Name: "Phường Bến Nghé"},
		},
	},
	{
		Province: domain.Province{Code: "01", Name: "Thành phố Hà Nội"},
		District: domain.District{Code: "001", ProvinceCode: "01", Name: "Quận Ba Đình"},
		Wards: []domain.Ward{
			{Code: "00001", DistrictCode: "001", Name: "Phường Phúc Xá"},
			{Code: "00004", DistrictCode: "001", Name: "Phường Trúc Bạch"},
		},
	},
}

type lookupSeed struct {
	Kind domain.LookupKind
	Key  string
	Name string
}

var lookups = []lookupSeed{
	{Kind: domain.KindCategory, Key: "analgesic", Name: "Giảm đau, hạ sốt"},
	{Kind: domain.KindCategory, Key: "supplement", Name: "Vitamin và khoáng chất"},
	{Kind: domain.KindUnit, Key: "box", Name: "Hộp"},
	{Kind: domain.KindUnit, Key: "bottle", Name: "Chai"},
	{Kind: domain.KindTrademark, Key: "dhg", Name: "DHG Pharma"},
	{Kind: domain.KindTrademark, Key: "traphaco", Name: "Traphaco"},
}

type productSeed struct {
	SKU         string
	Name        string
	Description string
	Price       int64
	Quantity    int
	Status      domain.ProductStatus
	Category    string
	Unit        string
	Trademark   string
}

var products = []productSeed{
	{
		SKU:         "HAPACOL-500",
		Name:        "Hapacol 500mg",
		Description: "Paracetamol 500mg, hộp 10 vỉ x 10 viên",
		Price:       55000,
		Quantity:    120,
		Status:      domain.ProductOnSale,
		Category:    "analgesic",
		Unit:        "box",
		Trademark:   "dhg",
	},
	{
		SKU:         "VITC-1000",
		Name:        "Vitamin C 1000mg",
		Description: "Viên sủi bổ sung vitamin C",
		Price:       82000,
		Quantity:    30,
		Status:      domain.ProductOnSale,
		Category:    "supplement",
		Unit:        "bottle",
		Trademark:   "traphaco",
	},
	{
		SKU:       "AMOX-500",
		Name:      "Amoxicillin 500mg",
		Price:     45000,
		Quantity:  60,
		Status:    domain.ProductPharmacyOnly,
		Category:  "analgesic",
		Unit:      "box",
		Trademark: "dhg",
	},
}

// Apply inserts order statuses, an admin account, sample locations and a
// small catalog. Running it twice leaves the data unchanged.
func Apply(ctx context.Context, pool *pgxpool.Pool, opts Options, logger *zap.Logger) error {
	logger = logging.OrNop(logger)

	if err := seedStatuses(ctx, statusorder.NewPostgres(pool)); err != nil {
		return fmt.Errorf("seed statuses: %w", err)
	}
	if err := seedAdmin(ctx, user.NewPostgres(pool, logger), opts); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if err := seedLocations(ctx, location.NewPostgres(pool)); err != nil {
		return fmt.Errorf("seed locations: %w", err)
	}
	ids, err := seedLookups(ctx, pool)
	if err != nil {
		return fmt.Errorf("seed lookups: %w", err)
	}
	if err := seedProducts(ctx, product.NewPostgres(pool, logger), ids); err != nil {
		return fmt.Errorf("seed products: %w", err)
	}

	logger.Info("seed applied",
		zap.Int("statuses", len(statuses)),
		zap.Int("locations", len(locations)),
		zap.Int("products", len(products)),
	)
	return nil
}

func seedStatuses(ctx context.Context, repo statusorder.Repository) error {
	for _, s := range statuses {
		_, err := repo.FirstForState(ctx, s.State)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if _, err := repo.Create(ctx, s.Name, s.State); err != nil {
			return fmt.Errorf("create %s: %w", s.State, err)
		}
	}
	return nil
}

func seedAdmin(ctx context.Context, repo user.Repository, opts Options) error {
	email := strings.ToLower(strings.TrimSpace(opts.AdminEmail))
	if email == "" || opts.AdminPassword == "" {
		return nil
	}
	_, err := repo.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = repo.Create(ctx, domain.User{
		Email:         email,
		PasswordHash:  string(hashed),
		FullName:      "Administrator",
		Role:          domain.RoleAdmin,
		EmailVerified: true,
	})
	return err
}

func seedLocations(ctx context.Context, repo location.Repository) error {
	for _, l := range locations {
		if err := repo.UpsertProvince(ctx, l.Province); err != nil {
			return err
		}
		if err := repo.UpsertDistrict(ctx, l.District); err != nil {
			return err
		}
		for _, w := range l.Wards {
			if err := repo.UpsertWard(ctx, w); err != nil {
				return err
			}
		}
	}
	return nil
}

// seedLookups returns the ids of the upserted rows keyed by kind and key.
func seedLookups(ctx context.Context, pool *pgxpool.Pool) (map[domain.LookupKind]map[string]string, error) {
	repos := make(map[domain.LookupKind]lookup.Repository, 3)
	ids := make(map[domain.LookupKind]map[string]string, 3)
	for _, l := range lookups {
		repo, ok := repos[l.Kind]
		if !ok {
			var err error
			repo, err = lookup.NewPostgres(pool, l.Kind)
			if err != nil {
				return nil, err
			}
			repos[l.Kind] = repo
			ids[l.Kind] = make(map[string]string)
		}
		row, err := repo.Upsert(ctx, l.Key, l.Name)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", l.Kind, l.Key, err)
		}
		ids[l.Kind][l.Key] = row.ID
	}
	return ids, nil
}

func seedProducts(ctx context.Context, repo product.Repository, ids map[domain.LookupKind]map[string]string) error {
	ref := func(kind domain.LookupKind, key string) *string {
		id, ok := ids[kind][key]
		if !ok {
			return nil
		}
		return &id
	}
	for _, p := range products {
		_, err := repo.UpsertBySKU(ctx, product.Input{
			SKU:         p.SKU,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Quantity:    p.Quantity,
			Status:      p.Status,
			CategoryID:  ref(domain.KindCategory, p.Category),
			UnitID:      ref(domain.KindUnit, p.Unit),
			TrademarkID: ref(domain.KindTrademark, p.Trademark),
		})
		if err != nil {
			return fmt.Errorf("upsert %s: %w", p.SKU, err)
		}
	}
	return nil
}
