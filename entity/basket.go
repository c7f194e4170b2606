// Package entity defines data models for the paybridge service.
package entity

import "strings"

// Detail keys stored on basket main records.
const (
	InvoiceNumberProperty     = "invoice_number"
	TransactionIdProperty     = "psp_transactionid"
	TransactionStatusProperty = "psp_transactionstatus"
	PaymentHistoryProperty    = "psp_history"
	PaymentMethodIssuer       = "paymentmethod_issuer"
	UserIdProperty            = "user_id"
)

// Item is a loosely typed record: basket main record, basket line or user details.
// Detail values are plain strings; typed interpretation is up to the reader.
type Item struct {
	Id         string            `json:"id" bson:"id"`
	EntityType string            `json:"entity_type" bson:"entity_type"`
	Title      string            `json:"title" bson:"title"`
	Details    map[string]string `json:"details" bson:"details"`
}

// GetDetailValue returns the value stored for key, or an empty string.
// Keys are matched case-insensitively.
func (i *Item) GetDetailValue(key string) string {
	if i == nil || i.Details == nil {
		return ""
	}
	if value, ok := i.Details[key]; ok {
		return value
	}
	for k, value := range i.Details {
		if strings.EqualFold(k, key) {
			return value
		}
	}
	return ""
}

// SetDetail stores value under key, replacing an existing key that differs only by case.
func (i *Item) SetDetail(key, value string) {
	if i.Details == nil {
		i.Details = make(map[string]string)
	}
	for k := range i.Details {
		if k != key && strings.EqualFold(k, key) {
			delete(i.Details, k)
		}
	}
	i.Details[key] = value
}

// Basket is one customer order: the main record and its ordered lines.
type Basket struct {
	Main  Item   `json:"main" bson:"main"`
	Lines []Item `json:"lines" bson:"lines"`
}

// InvoiceNumber returns the correlation key of the basket.
func (b *Basket) InvoiceNumber() string {
	return b.Main.GetDetailValue(InvoiceNumberProperty)
}
