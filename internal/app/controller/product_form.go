package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/poshaakwala/storefront-backend/internal/app/model"
	"github.com/poshaakwala/storefront-backend/internal/app/service"
	"github.com/shopspring/decimal"
)

// listFields may arrive either as a structured JSON array or as a string holding one.
// Multipart clients can also repeat the field once per element.
var listFields = map[string]bool{
	"category":        true,
	"tags":            true,
	"productLinks":    true,
	"imageTags":       true,
	"newImageTags":    true,
	"existingImages":  true,
	"removedImageIds": true,
}

// productPayload is the canonical body of a product create or update, whatever the transport.
type productPayload struct {
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	Price           *decimal.Decimal      `json:"price"`
	Category        []string              `json:"category"`
	Brand           string                `json:"brand"`
	Type            string                `json:"type"`
	Capacity        string                `json:"capacity"`
	ProductLinks    []string              `json:"productLinks"`
	Tags            []string              `json:"tags"`
	ImageTags       []model.ImageTagValue `json:"imageTags"`
	ExistingImages  []model.ExistingImage `json:"existingImages"`
	RemovedImageIDs []string              `json:"removedImageIds"`
	NewImageTags    []model.ImageTagValue `json:"newImageTags"`
}

func (p *productPayload) input() service.ProductInput {
	return service.ProductInput{
		Title:        p.Title,
		Description:  p.Description,
		Price:        p.Price,
		Category:     p.Category,
		Brand:        p.Brand,
		Type:         p.Type,
		Capacity:     p.Capacity,
		ProductLinks: p.ProductLinks,
		Tags:         p.Tags,
	}
}

func (p *productPayload) updateInput() service.ProductUpdateInput {
	return service.ProductUpdateInput{
		ProductInput:    p.input(),
		ExistingImages:  p.ExistingImages,
		RemovedImageIDs: p.RemovedImageIDs,
		NewImageTags:    p.NewImageTags,
	}
}

// bindProductPayload decodes a multipart or JSON product body into one canonical payload.
// Every list field is reduced to a JSON array before decoding.
func bindProductPayload(c *gin.Context) (*productPayload, error) {
	var fields map[string]json.RawMessage
	var err error
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		fields, err = multipartFields(c)
	} else {
		fields, err = jsonFields(c)
	}
	if err != nil {
		return nil, err
	}

	canonical, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	var payload productPayload
	if err := json.Unmarshal(canonical, &payload); err != nil {
		return nil, fmt.Errorf("malformed product body: %w", err)
	}
	return &payload, nil
}

func multipartFields(c *gin.Context) (map[string]json.RawMessage, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}

	fields := make(map[string]json.RawMessage, len(form.Value))
	for name, values := range form.Value {
		if len(values) == 0 {
			continue
		}
		if listFields[name] {
			raw, err := formList(values)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", name, err)
			}
			fields[name] = raw
			continue
		}

		value := strings.TrimSpace(values[0])
		if value == "" {
			continue
		}
		// price stays quoted; decimal accepts both encodings
		fields[name], _ = json.Marshal(values[0])
	}
	return fields, nil
}

// formList turns the values of a repeated form field into a JSON array. A lone value that
// is itself a JSON array is used as is.
func formList(values []string) (json.RawMessage, error) {
	if len(values) == 1 {
		value := strings.TrimSpace(values[0])
		if value == "" {
			return json.RawMessage("[]"), nil
		}
		if strings.HasPrefix(value, "[") {
			if !json.Valid([]byte(value)) {
				return nil, fmt.Errorf("invalid JSON array")
			}
			return json.RawMessage(value), nil
		}
	}

	elements := make([]json.RawMessage, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
			elements = append(elements, json.RawMessage(trimmed))
			continue
		}
		encoded, _ := json.Marshal(v)
		elements = append(elements, encoded)
	}
	return json.Marshal(elements)
}

func jsonFields(c *gin.Context) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := c.ShouldBindJSON(&fields); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}

	for name, raw := range fields {
		if !listFields[name] {
			continue
		}
		normalized, err := jsonList(raw)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		fields[name] = normalized
	}
	return fields, nil
}

// jsonList accepts a native array, a string holding an array, a single bare string or null.
func jsonList(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return json.RawMessage("[]"), nil
	}
	if trimmed[0] != '"' {
		return trimmed, nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil, err
	}
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return json.RawMessage("[]"), nil
	case strings.HasPrefix(s, "["):
		if !json.Valid([]byte(s)) {
			return nil, fmt.Errorf("invalid JSON array")
		}
		return json.RawMessage(s), nil
	default:
		return json.Marshal([]string{s})
	}
}
