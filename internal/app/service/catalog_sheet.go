package service

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/poshaakwala/storefront-backend/internal/app/model"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const productSheetName = "Products"

// Column order shared by export and import.
var productSheetHeaders = []string{
	"ID", "Title", "Description", "Price", "Category", "Brand",
	"Type", "Capacity", "Tags", "Product Links", "Images", "Created At",
}

const listSeparator = ", "

// WriteProductSheet renders products as an xlsx workbook with one row per product.
func WriteProductSheet(products []model.Product) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), productSheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(productSheetHeaders))
	for i, h := range productSheetHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(productSheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, p := range products {
		imageURLs := make([]string, 0, len(p.Images))
		for _, img := range p.Images {
			imageURLs = append(imageURLs, img.URL)
		}
		row := []interface{}{
			p.ID,
			p.Title,
			p.Description,
			p.Price,
			strings.Join(p.Category, listSeparator),
			p.Brand,
			p.Type,
			p.Capacity,
			strings.Join(p.Tags, listSeparator),
			strings.Join(p.ProductLinks, listSeparator),
			strings.Join(imageURLs, listSeparator),
			p.CreatedAt.UTC().Format(time.RFC3339),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(productSheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf, nil
}

// SheetRowError describes a row that could not be imported.
type SheetRowError struct {
	Row    int
	Reason string
}

func (e SheetRowError) Error() string {
	return "row " + strconv.Itoa(e.Row) + ": " + e.Reason
}

// ReadProductSheet parses the first sheet of an xlsx workbook laid out like WriteProductSheet.
// The ID, Images and Created At columns are ignored. Rows that fail validation are reported
// and skipped.
func ReadProductSheet(r io.Reader) ([]ProductInput, []SheetRowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, nil, fmt.Errorf("no sheets found in workbook")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}

	var inputs []ProductInput
	var skipped []SheetRowError
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		rowNum := i + 1
		col := func(idx int) string {
			if idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}

		title := col(1)
		if title == "" {
			skipped = append(skipped, SheetRowError{Row: rowNum, Reason: "missing title"})
			continue
		}
		price, err := decimal.NewFromString(col(3))
		if err != nil || price.IsNegative() {
			skipped = append(skipped, SheetRowError{Row: rowNum, Reason: "invalid price " + strconv.Quote(col(3))})
			continue
		}

		inputs = append(inputs, ProductInput{
			Title:        title,
			Description:  col(2),
			Price:        &price,
			Category:     splitList(col(4)),
			Brand:        col(5),
			Type:         col(6),
			Capacity:     col(7),
			Tags:         splitList(col(8)),
			ProductLinks: splitList(col(9)),
		})
	}
	return inputs, skipped, nil
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
