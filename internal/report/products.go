package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pasteldream/pastel-backend/internal/app/service"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Product sheet columns, in order. Only name and price are required.
var productColumns = []string{"name", "description", "price", "image_url", "tags", "tag", "category", "is_active"}

// RowError describes a skipped spreadsheet row.
type RowError struct {
	Row    int
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// ReadProducts parses the first sheet of an XLSX catalog. The first row is
// a header. Invalid rows are skipped and reported.
func ReadProducts(r io.Reader) ([]service.ProductInput, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, nil, fmt.Errorf("no sheets found in XLSX file")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("no data found in XLSX file")
	}

	var (
		products []service.ProductInput
		skipped  []RowError
	)
	for i, row := range rows[1:] {
		line := i + 2
		cells := make([]string, len(productColumns))
		for c := range cells {
			if c < len(row) {
				cells[c] = strings.TrimSpace(row[c])
			}
		}
		if cells[0] == "" && cells[2] == "" {
			continue
		}

		in, err := productFromCells(cells)
		if err != nil {
			skipped = append(skipped, RowError{Row: line, Reason: err.Error()})
			continue
		}
		products = append(products, in)
	}
	return products, skipped, nil
}

func productFromCells(cells []string) (service.ProductInput, error) {
	if cells[0] == "" {
		return service.ProductInput{}, fmt.Errorf("name is empty")
	}
	price, err := decimal.NewFromString(cells[2])
	if err != nil {
		return service.ProductInput{}, fmt.Errorf("invalid price %q", cells[2])
	}
	if price.IsNegative() {
		return service.ProductInput{}, fmt.Errorf("price is negative")
	}

	active := true
	if cells[7] != "" {
		active, err = strconv.ParseBool(strings.ToLower(cells[7]))
		if err != nil {
			return service.ProductInput{}, fmt.Errorf("invalid is_active %q", cells[7])
		}
	}

	return service.ProductInput{
		Name:        cells[0],
		Description: cells[1],
		Price:       price,
		ImageURL:    cells[3],
		Tags:        cells[4],
		Tag:         cells[5],
		Category:    cells[6],
		IsActive:    active,
	}, nil
}
