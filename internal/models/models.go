package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is the catalog row the ledger needs. Stock is the simple-topology
// counter and the aggregate counter for color variants.
type Product struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey"      json:"id"`
	Name  string    `gorm:"not null"                  json:"name"`
	Stock int       `gorm:"not null;default:0"        json:"stock"`

	Variants []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
	Storages []Storage        `gorm:"foreignKey:ProductID" json:"storages,omitempty"`
}

type ProductVariant struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                       json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_variant_color;not null" json:"product_id"`
	Color     string    `gorm:"uniqueIndex:idx_variant_color;not null"      json:"color"`
	Quantity  int       `gorm:"not null;default:0"                         json:"quantity"`
}

// Storage is a storage option of a product. It carries no counter of its own,
// availability is the sum of its units.
type Storage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"   json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;index;not null" json:"product_id"`
	Label     string    `gorm:"not null"               json:"label"`
	Position  int       `gorm:"not null;default:0"     json:"position"`

	Units []StorageUnit `gorm:"foreignKey:StorageID" json:"units,omitempty"`
}

type StorageUnit struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	StorageID uuid.UUID `gorm:"type:uuid;index;not null" json:"storage_id"`
	Color     string    `gorm:"not null"                 json:"color"`
	Stock     int       `gorm:"not null;default:0"       json:"stock"`
	Position  int       `gorm:"not null;default:0"       json:"position"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (v *ProductVariant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

func (s *Storage) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (u *StorageUnit) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
