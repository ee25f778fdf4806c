package product

import (
	"encoding/json"

	"pharmacy-store/internal/domain"
)

// Columns selects a product joined with its lookups and images. It must
// be used together with Joins.
const Columns = `p.id::text, p.sku, p.name, p.description, p.price, p.quantity, p.status,
c.id::text, c.key, c.name, u.id::text, u.key, u.name, t.id::text, t.key, t.name,
COALESCE((
    SELECT json_agg(json_build_object('id', i.id::text, 'url', i.url, 'position', i.position) ORDER BY i.position)
    FROM product_images i
    WHERE i.product_id = p.id
), '[]'::json),
p.created_at`

// Joins is the FROM clause matching Columns.
const Joins = `products p
LEFT JOIN categories c ON c.id = p.category_id
LEFT JOIN units u ON u.id = p.unit_id
LEFT JOIN trademarks t ON t.id = p.trademark_id`

// RowScanner holds the nullable scratch values needed to scan Columns.
type RowScanner struct {
	status     string
	lookups    [3][3]*string
	imagesJSON []byte
}

// Dest returns scan destinations for Columns, in order.
func (s *RowScanner) Dest(p *domain.Product) []any {
	dest := []any{&p.ID, &p.SKU, &p.Name, &p.Description, &p.Price, &p.Quantity, &s.status}
	for i := range s.lookups {
		dest = append(dest, &s.lookups[i][0], &s.lookups[i][1], &s.lookups[i][2])
	}
	return append(dest, &s.imagesJSON, &p.CreatedAt)
}

// Finish copies scratch values into p after a successful Scan.
func (s *RowScanner) Finish(p *domain.Product) error {
	p.Status = domain.ProductStatus(s.status)
	kinds := [3]domain.LookupKind{domain.KindCategory, domain.KindUnit, domain.KindTrademark}
	refs := [3]**domain.Lookup{&p.Category, &p.Unit, &p.Trademark}
	ids := [3]**string{&p.CategoryID, &p.UnitID, &p.TrademarkID}
	for i, l := range s.lookups {
		if l[0] == nil {
			continue
		}
		*ids[i] = l[0]
		*refs[i] = &domain.Lookup{ID: *l[0], Kind: kinds[i], Key: deref(l[1]), Name: deref(l[2])}
	}
	p.Images = []domain.ProductImage{}
	if len(s.imagesJSON) > 0 {
		if err := json.Unmarshal(s.imagesJSON, &p.Images); err != nil {
			return err
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
