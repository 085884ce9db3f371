package domain

import "time"

type Location struct {
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
	City    string   `json:"city,omitempty"`
	Region  string   `json:"region,omitempty"`
	Country string   `json:"country,omitempty"`
}

func (l *Location) Empty() bool {
	return l == nil || (l.Lat == nil && l.Lon == nil && l.City == "" && l.Region == "" && l.Country == "")
}

// LoginRecord is the audit entry written for every verified sign-in.
// LoggedOutAt, once set, is never earlier than LoggedInAt.
type LoginRecord struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	AccountID   string     `gorm:"size:16;not null;index:idx_login_records_account" json:"accountId"`
	Account     *Account   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	IP          *string    `gorm:"size:64" json:"ip,omitempty"`
	Location    *Location  `gorm:"serializer:json" json:"location,omitempty"`
	UserAgent   string     `gorm:"size:1024" json:"userAgent"`
	LoginToken  string     `gorm:"size:64;index" json:"loginToken"`
	LoggedInAt  time.Time  `gorm:"not null" json:"loggedInAt"`
	LoggedOutAt *time.Time `json:"loggedOutAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (r *LoginRecord) Active() bool { return r.LoggedOutAt == nil }
