package model

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Title        string    `gorm:"not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	Price        float64   `gorm:"type:decimal(12,2);not null" json:"price"`
	Category     []string  `gorm:"type:text;serializer:labels" json:"category"`
	Brand        string    `gorm:"type:varchar(120)" json:"brand"`
	Type         string    `gorm:"type:varchar(120)" json:"type"`
	Capacity     string    `gorm:"type:varchar(120)" json:"capacity,omitempty"`
	ProductLinks []string  `gorm:"type:text;serializer:labels" json:"productLinks"`
	Tags         []string  `gorm:"type:text;serializer:labels" json:"tags"`
	Images       []Image   `gorm:"type:text;serializer:json" json:"images"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (Product) TableName() string {
	return "products"
}

// PublicIDs returns the storage identifiers of every image that has one.
func (p *Product) PublicIDs() []string {
	ids := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		if img.PublicID != "" {
			ids = append(ids, img.PublicID)
		}
	}
	return ids
}

func (p *Product) BeforeSave(tx *gorm.DB) error {
	p.normalizeLists()
	return nil
}

func (p *Product) AfterFind(tx *gorm.DB) error {
	p.normalizeLists()
	return nil
}

// normalizeLists keeps list fields non-nil so they serialize as [] rather than null.
func (p *Product) normalizeLists() {
	if p.Category == nil {
		p.Category = []string{}
	}
	if p.ProductLinks == nil {
		p.ProductLinks = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Images == nil {
		p.Images = []Image{}
	}
}
