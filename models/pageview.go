package models

import "time"

// PageView stores aggregated read counts per day and API route. Route holds
// the gin route template, not the raw path, so parameterized reads share one
// row. Rows are upserted by the recorder middleware and summed by the stats
// endpoint; the stats query filters on Date alone, served by the composite
// index prefix.
type PageView struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      time.Time `gorm:"index:idx_pv_date_route,unique;type:date;not null" json:"date"`
	Route     string    `gorm:"index:idx_pv_date_route,unique;size:255;not null" json:"route"`
	Count     int64     `gorm:"not null;default:0" json:"count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
