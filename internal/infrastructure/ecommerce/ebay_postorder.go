package ecommerce

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/ebay"
)

// PostOrderClient implements ebay.PostOrderGateway over the Post-Order API
type PostOrderClient struct {
	client *EbayClient
}

// NewPostOrderClient creates a Post-Order API client
func NewPostOrderClient(client *EbayClient) *PostOrderClient {
	return &PostOrderClient{client: client}
}

var _ ebay.PostOrderGateway = (*PostOrderClient)(nil)

// SearchInquiries returns one page of the seller's inquiries. The Post-Order
// API pages by number, so offset is converted to a 1-based page.
func (c *PostOrderClient) SearchInquiries(ctx context.Context, userID uuid.UUID, offset, limit int) (*ebay.InquiriesPage, error) {
	if limit <= 0 {
		limit = 25
	}
	query := url.Values{}
	query.Set("limit", fmt.Sprint(limit))
	query.Set("offset", fmt.Sprint(offset/limit+1))

	var resp EbayInquirySearchResponse
	err := c.client.do(ctx, userID, ebayRequest{
		name:   "postorder.search_inquiries",
		method: http.MethodGet,
		path:   "/post-order/v2/inquiry/search",
		query:  query,
		auth:   authIAF,
	}, &resp)
	if err != nil {
		return nil, err
	}

	page := &ebay.InquiriesPage{
		PageInfo:  ebay.PageInfo{Offset: offset, Limit: limit, Total: resp.PaginationOutput.TotalEntries},
		Inquiries: make([]ebay.EbayInquiry, 0, len(resp.Members)),
	}
	for _, m := range resp.Members {
		page.Inquiries = append(page.Inquiries, toEbayInquiry(userID, m))
	}
	return page, nil
}

func toEbayInquiry(userID uuid.UUID, m EbayInquiry) ebay.EbayInquiry {
	inquiry := ebay.EbayInquiry{
		UserID:        userID,
		InquiryID:     m.InquiryID,
		OrderID:       m.TransactionID,
		ItemID:        m.ItemID,
		BuyerUsername: m.Buyer,
		Status:        m.InquiryStatusEnum,
		State:         inquiryState(m),
		Type:          "INR",
		ClaimAmount:   m.ClaimAmount.Value,
		Currency:      m.ClaimAmount.Currency,
		RespondBy:     m.RespondByDate.Value,
	}
	if m.CreationDate.Value != nil {
		inquiry.OpenedAt = *m.CreationDate.Value
	} else {
		inquiry.OpenedAt = time.Now().UTC()
	}
	return inquiry
}

func inquiryState(m EbayInquiry) string {
	if m.State != "" {
		return strings.ToUpper(m.State)
	}
	if strings.Contains(strings.ToUpper(m.InquiryStatusEnum), "CLOSED") {
		return "CLOSED"
	}
	return "OPEN"
}
