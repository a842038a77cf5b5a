package model

import (
	"bytes"
	"encoding/json"
)

type ImageTag string

const (
	ImageTagPrimary   ImageTag = "primary"
	ImageTagSecondary ImageTag = "secondary"
	ImageTagExtra     ImageTag = "extra"
)

// Image is embedded in its product and has no identity of its own.
type Image struct {
	URL      string   `json:"url"`
	PublicID string   `json:"public_id"`
	Tag      ImageTag `json:"tag"`
}

// ImageTagValue is the tag a client sent for one image: either a bare label ("primary")
// or an object carrying richer metadata ({"tag": "primary", ...}).
type ImageTagValue struct {
	Label  string
	Tagged bool
	Set    bool
}

// PlainLabel builds a tag value from a bare label.
func PlainLabel(label string) ImageTagValue {
	return ImageTagValue{Label: label, Set: true}
}

// TaggedObject builds a tag value from an object's tag field.
func TaggedObject(tag string) ImageTagValue {
	return ImageTagValue{Label: tag, Tagged: true, Set: true}
}

func (v *ImageTagValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = ImageTagValue{}
		return nil
	case len(data) > 0 && data[0] == '{':
		var obj struct {
			Tag json.RawMessage `json:"tag"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		var label string
		// a non-string tag inside the object is treated as unset
		_ = json.Unmarshal(obj.Tag, &label)
		*v = TaggedObject(label)
		return nil
	case len(data) > 0 && data[0] == '"':
		var label string
		if err := json.Unmarshal(data, &label); err != nil {
			return err
		}
		*v = PlainLabel(label)
		return nil
	default:
		// numbers, booleans and arrays carry no usable label
		*v = ImageTagValue{Set: true}
		return nil
	}
}

func (v ImageTagValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(SanitizeImageTag(v))
}

// SanitizeImageTag reduces either tag shape to one of the known tags, defaulting to extra.
func SanitizeImageTag(v ImageTagValue) ImageTag {
	switch tag := ImageTag(v.Label); tag {
	case ImageTagPrimary, ImageTagSecondary, ImageTagExtra:
		return tag
	default:
		return ImageTagExtra
	}
}

// ImageTagAt returns the sanitized tag for the image at position i, or extra when out of range.
func ImageTagAt(tags []ImageTagValue, i int) ImageTag {
	if i < 0 || i >= len(tags) {
		return ImageTagExtra
	}
	return SanitizeImageTag(tags[i])
}

// ExistingImage is an image the client wants to keep on update. Its tag may be in either shape.
type ExistingImage struct {
	URL      string        `json:"url"`
	PublicID string        `json:"public_id"`
	Tag      ImageTagValue `json:"tag"`
}

func (e ExistingImage) ToImage() Image {
	return Image{URL: e.URL, PublicID: e.PublicID, Tag: SanitizeImageTag(e.Tag)}
}
