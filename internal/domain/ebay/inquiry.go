package ebay

import (
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// EbayInquiry is an item-not-received inquiry opened by a buyer
type EbayInquiry struct {
	shared.BaseEntity
	UserID        uuid.UUID
	InquiryID     string
	OrderID       string
	ItemID        string
	BuyerUsername string
	Status        string
	State         string
	Type          string
	ClaimAmount   decimal.Decimal
	Currency      string
	RespondBy     *time.Time
	OpenedAt      time.Time
}

// OwnerID implements shared.UserOwned
func (i *EbayInquiry) OwnerID() uuid.UUID {
	return i.UserID
}

// NeedsResponse reports whether the seller must act before RespondBy
func (i *EbayInquiry) NeedsResponse(now time.Time) bool {
	return i.State == "OPEN" && i.RespondBy != nil && i.RespondBy.After(now)
}
