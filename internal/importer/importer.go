package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"pharmacy-store/internal/domain"
	"pharmacy-store/internal/logging"
	productrepo "pharmacy-store/internal/repository/product"
)

type ProductWriter interface {
	UpsertBySKU(ctx context.Context, in productrepo.Input) (*domain.Product, error)
}

type LookupWriter interface {
	Kind() domain.LookupKind
	Upsert(ctx context.Context, key, name string) (*domain.Lookup, error)
}

// CSVImporter reads a pharmacy catalog export and upserts products by SKU.
//
// Expected header: sku, name, description, price, quantity, status,
// category.key, category.name, unit.key, unit.name, trademark.key,
// trademark.name, image. A row with an empty sku and an image continues
// the previous product.
type CSVImporter struct {
	reader   *csv.Reader
	products ProductWriter
	lookups  map[domain.LookupKind]LookupWriter
	logger   *zap.Logger

	// key -> id per kind, filled as lookups are upserted.
	resolved map[domain.LookupKind]map[string]string
}

func NewCSVImporter(r io.Reader, products ProductWriter, lookups []LookupWriter, logger *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	csvr.TrimLeadingSpace = true
	byKind := make(map[domain.LookupKind]LookupWriter, len(lookups))
	for _, l := range lookups {
		byKind[l.Kind()] = l
	}
	return &CSVImporter{
		reader:   csvr,
		products: products,
		lookups:  byKind,
		logger:   logging.OrNop(logger),
		resolved: make(map[domain.LookupKind]map[string]string),
	}
}

type lookupRef struct {
	key  string
	name string
}

type csvRow struct {
	line      int
	sku       string
	name      string
	desc      string
	price     int64
	quantity  int
	status    domain.ProductStatus
	refs      map[domain.LookupKind]lookupRef
	imageURLs []string
}

// Run parses every row and returns the number of products written.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, required := range []string{"sku", "name", "price"} {
		if _, ok := index[required]; !ok {
			return 0, fmt.Errorf("missing %q column", required)
		}
	}

	var (
		current  *csvRow
		imported int
	)
	flush := func() error {
		if current == nil {
			return nil
		}
		if err := i.save(ctx, current); err != nil {
			return err
		}
		imported++
		return nil
	}

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line, _ := i.reader.FieldPos(0)

		row, err := parseRow(record, index, line)
		if err != nil {
			return imported, err
		}
		if row == nil {
			continue
		}

		if row.sku != "" {
			if err := flush(); err != nil {
				return imported, err
			}
			current = row
			continue
		}

		if current != nil {
			current.imageURLs = append(current.imageURLs, row.imageURLs...)
		}
	}

	if err := flush(); err != nil {
		return imported, err
	}
	i.logger.Info("catalog import finished", zap.Int("products", imported))
	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	if row.name == "" {
		return fmt.Errorf("line %d: name is required for sku %q", row.line, row.sku)
	}

	in := productrepo.Input{
		SKU:         row.sku,
		Name:        row.name,
		Description: row.desc,
		Price:       row.price,
		Quantity:    row.quantity,
		Status:      row.status,
		Images:      row.imageURLs,
	}
	for kind, ref := range row.refs {
		id, err := i.resolve(ctx, kind, ref)
		if err != nil {
			return fmt.Errorf("line %d: %w", row.line, err)
		}
		switch kind {
		case domain.KindCategory:
			in.CategoryID = &id
		case domain.KindUnit:
			in.UnitID = &id
		case domain.KindTrademark:
			in.TrademarkID = &id
		}
	}
	if in.Status == "" {
		in.Status = domain.ProductOnSale
	}
	if in.Quantity == 0 && in.Status == domain.ProductOnSale {
		in.Status = domain.ProductOutOfStock
	}

	if _, err := i.products.UpsertBySKU(ctx, in); err != nil {
		return fmt.Errorf("upsert product %q: %w", row.sku, err)
	}
	return nil
}

func (i *CSVImporter) resolve(ctx context.Context, kind domain.LookupKind, ref lookupRef) (string, error) {
	if id, ok := i.resolved[kind][ref.key]; ok {
		return id, nil
	}
	w, ok := i.lookups[kind]
	if !ok {
		return "", fmt.Errorf("no writer for %s", kind)
	}
	name := ref.name
	if name == "" {
		name = ref.key
	}
	l, err := w.Upsert(ctx, ref.key, name)
	if err != nil {
		return "", fmt.Errorf("upsert %s %q: %w", kind, ref.key, err)
	}
	if i.resolved[kind] == nil {
		i.resolved[kind] = make(map[string]string)
	}
	i.resolved[kind][ref.key] = l.ID
	return l.ID, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int, line int) (*csvRow, error) {
	sku := pick(record, index, "sku")
	image := pick(record, index, "image")
	if sku == "" && image == "" {
		return nil, nil
	}

	row := &csvRow{line: line, sku: sku}
	if image != "" {
		row.imageURLs = []string{image}
	}
	if sku == "" {
		return row, nil
	}

	row.name = pick(record, index, "name")
	row.desc = pick(record, index, "description")

	price, err := strconv.ParseInt(pick(record, index, "price"), 10, 64)
	if err != nil || price < 0 {
		return nil, fmt.Errorf("line %d: invalid price for sku %q", line, sku)
	}
	row.price = price

	if q := pick(record, index, "quantity"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("line %d: invalid quantity for sku %q", line, sku)
		}
		row.quantity = n
	}

	if s := pick(record, index, "status"); s != "" {
		status := domain.ProductStatus(strings.ToLower(s))
		if !status.Valid() {
			return nil, fmt.Errorf("line %d: unknown status %q", line, s)
		}
		row.status = status
	}

	row.refs = make(map[domain.LookupKind]lookupRef, 3)
	for kind, prefix := range map[domain.LookupKind]string{
		domain.KindCategory:  "category",
		domain.KindUnit:      "unit",
		domain.KindTrademark: "trademark",
	} {
		key := pick(record, index, prefix+".key")
		if key == "" {
			continue
		}
		row.refs[kind] = lookupRef{key: key, name: pick(record, index, prefix+".name")}
	}
	return row, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
