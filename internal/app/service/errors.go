package service

import "errors"

var (
	// ErrValidation marks missing or malformed client input. Wrapped with the detail.
	ErrValidation = errors.New("validation failed")

	ErrProductNotFound = errors.New("product not found")
	ErrCartNotFound    = errors.New("cart not found")

	// ErrImageUpload means the object store rejected or failed an upload.
	ErrImageUpload = errors.New("image upload failed")
)
