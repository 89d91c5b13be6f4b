package models

import "time"

// GridAreaOwnership records the single current owner of a grid area.
type GridAreaOwnership struct {
	GridArea    string    `gorm:"column:grid_area;primaryKey"`
	OwnerNumber string    `gorm:"column:owner_number;not null;index:idx_grid_area_ownerships_owner"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
