package types

import (
	"time"
)

// BaseModel carries the bookkeeping columns shared by all persisted entities.
// Rows are never hard-deleted outside the usage retention sweep; DeletedAt is
// the soft-delete marker and deleted rows are filtered out of every read path.
type BaseModel struct {
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

func GetDefaultBaseModel() BaseModel {
	now := time.Now().UTC()
	return BaseModel{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsDeleted reports whether the row has been soft-deleted.
func (m BaseModel) IsDeleted() bool {
	return m.DeletedAt != nil
}
