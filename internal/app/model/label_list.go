package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"gorm.io/gorm/schema"
)

// LabelListSerializer is registered as "labels". It stores a []string column as a JSON array
// without HTML escaping, so "&", "<" and ">" stay literal and LIKE patterns built with
// EscapeLabel line up with the stored text.
const LabelListSerializer = "labels"

func init() {
	schema.RegisterSerializer(LabelListSerializer, labelListSerializer{})
}

type labelListSerializer struct{}

func (labelListSerializer) Scan(ctx context.Context, field *schema.Field, dst reflect.Value, dbValue interface{}) error {
	labels := []string{}
	if dbValue != nil {
		var raw []byte
		switch v := dbValue.(type) {
		case []byte:
			raw = v
		case string:
			raw = []byte(v)
		default:
			return fmt.Errorf("failed to unmarshal label list value: %#v", dbValue)
		}
		if len(bytes.TrimSpace(raw)) > 0 {
			if err := json.Unmarshal(raw, &labels); err != nil {
				return err
			}
		}
	}
	field.ReflectValueOf(ctx, dst).Set(reflect.ValueOf(labels))
	return nil
}

func (labelListSerializer) Value(_ context.Context, _ *schema.Field, _ reflect.Value, fieldValue interface{}) (interface{}, error) {
	labels, _ := fieldValue.([]string)
	if labels == nil {
		labels = []string{}
	}
	return encodeLabelJSON(labels)
}

// EncodeLabel returns the quoted form a single label takes inside a stored label list.
func EncodeLabel(label string) string {
	encoded, _ := encodeLabelJSON(label)
	return encoded
}

// EscapeLabel returns text as it appears inside a stored label, quotes excluded. The result
// never contains an unescaped quote, so a pattern built from it cannot span two labels.
func EscapeLabel(text string) string {
	encoded := EncodeLabel(text)
	return encoded[1 : len(encoded)-1]
}

func encodeLabelJSON(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
