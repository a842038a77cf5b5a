package storage

// File is an uploaded image held in memory after validation.
type File struct {
	Filename    string
	ContentType string // sniffed from the content, not taken from the client
	Data        []byte
}
