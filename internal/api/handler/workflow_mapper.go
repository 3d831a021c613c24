package handler

import (
	"github.com/pavingco/driveway-api/internal/core/domain"
)

const uploadsPath = "/uploads/"

func toQuoteResponse(q *domain.Quote) quoteResponse {
	pictures := make([]pictureResponse, 0, len(q.Attachments))
	for _, a := range q.Attachments {
		pictures = append(pictures, pictureResponse{Ref: a.Ref, URL: uploadsPath + a.Ref})
	}
	var window []string
	if len(q.TimeWindow) > 0 {
		window = q.TimeWindow.Strings()
	}
	return quoteResponse{
		ID:              q.ID,
		ClientID:        q.ClientID,
		PropertyAddress: q.PropertyAddress,
		AreaSqFt:        q.AreaSqFt,
		ProposedPrice:   q.ProposedPrice,
		Message:         q.Message,
		Status:          string(q.Status),
		TimeWindow:      window,
		CreatedAt:       q.CreatedAt,
		Pictures:        pictures,
	}
}

func toQuoteResponses(quotes []*domain.Quote) []quoteResponse {
	out := make([]quoteResponse, len(quotes))
	for i, q := range quotes {
		out[i] = toQuoteResponse(q)
	}
	return out
}

func toManagedQuoteResponses(quotes []*domain.QuoteWithClient) []managedQuoteResponse {
	out := make([]managedQuoteResponse, len(quotes))
	for i, q := range quotes {
		out[i] = managedQuoteResponse{
			quoteResponse: toQuoteResponse(&q.Quote),
			Client: clientSummaryResponse{
				FirstName: q.ClientFirstName,
				LastName:  q.ClientLastName,
				Email:     q.ClientEmail,
			},
		}
	}
	return out
}

func toOrderResponse(o *domain.Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		QuoteID:       o.QuoteID,
		WorkStartDate: o.WorkStartDate.String(),
		WorkEndDate:   optionalDate(o.WorkEndDate),
		AgreedPrice:   o.AgreedPrice,
		Status:        string(o.Status),
		CreatedAt:     o.CreatedAt,
	}
}

func toOrderResponses(orders []*domain.Order) []orderResponse {
	out := make([]orderResponse, len(orders))
	for i, o := range orders {
		out[i] = toOrderResponse(o)
	}
	return out
}

func toBillResponse(b *domain.Bill) billResponse {
	return billResponse{
		ID:        b.ID,
		OrderID:   b.OrderID,
		QuoteID:   b.QuoteID,
		ClientID:  b.ClientID,
		BillDate:  b.BillDate.String(),
		AmountDue: b.AmountDue,
		PayDate:   optionalDate(b.PayDate),
		Paid:      b.Paid,
		Message:   b.Message,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt,
	}
}

func toBillResponses(bills []*domain.Bill) []billResponse {
	out := make([]billResponse, len(bills))
	for i, b := range bills {
		out[i] = toBillResponse(b)
	}
	return out
}

func optionalDate(d *domain.Date) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
