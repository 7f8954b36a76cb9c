// internal/storage/models/base.go
package models

import "time"

// BaseModel holds the columns every journal table has.
type BaseModel struct {
	ID        int64     `db:"id" json:"id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}
