package domain

import (
	"strings"
	"time"
)

type AccountKind string

const (
	AccountKindIndividual AccountKind = "INDIVIDUAL"
	AccountKindBusiness   AccountKind = "BUSINESS"
)

func ParseAccountKind(v string) (AccountKind, bool) {
	switch AccountKind(strings.TrimSpace(v)) {
	case AccountKindIndividual:
		return AccountKindIndividual, true
	case AccountKindBusiness:
		return AccountKindBusiness, true
	default:
		return "", false
	}
}

// IDPrefix is the leading segment of external account ids, e.g. IND202512345.
func (k AccountKind) IDPrefix() string {
	if k == AccountKindBusiness {
		return "BSN"
	}
	return "IND"
}

type Account struct {
	ID              string      `gorm:"primaryKey;size:16" json:"id"`
	Kind            AccountKind `gorm:"size:16;not null" json:"kind"`
	Name            string      `gorm:"size:255" json:"name"`
	Email           string      `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Phone           string      `gorm:"uniqueIndex;size:32;not null" json:"phone"`
	BusinessName    *string     `gorm:"size:255" json:"businessName,omitempty"`
	TaxID           *string     `gorm:"size:32" json:"taxId,omitempty"`
	PasswordHash    *string     `gorm:"size:1024" json:"-"`
	EmailVerified   bool        `gorm:"not null;default:false" json:"emailVerified"`
	EmailVerifiedAt *time.Time  `json:"emailVerifiedAt,omitempty"`
	PhoneVerified   bool        `gorm:"not null;default:false" json:"phoneVerified"`
	Suspended       bool        `gorm:"not null;default:false" json:"suspended"`
	SuspendedCount  int         `gorm:"not null;default:0" json:"suspendedCount"`
	Terminated      bool        `gorm:"not null;default:false" json:"terminated"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

func (a *Account) IsSuspended() bool  { return a.Suspended }
func (a *Account) IsTerminated() bool { return a.Terminated }

func (a *Account) HasPassword() bool {
	return a.PasswordHash != nil && *a.PasswordHash != ""
}

func (a *Account) IsEmailVerified() bool { return a.EmailVerified }
