package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultMessengerPhone is the shop's messaging number.
const DefaultMessengerPhone = "639123456789"

// OrderSummary renders the plain-text order summary sent to the shop.
func OrderSummary(o Order) string {
	lines := []string{
		"Order from " + o.FullName,
		"Phone: " + o.PhoneNumber,
		"Facebook: " + o.Facebook,
		"Pickup Date: " + o.PickupDate,
		fmt.Sprintf("Quantity: %d pcs", o.Quantity),
		"Total: ₱" + FormatPesos(o.Total),
	}
	return strings.Join(lines, "\n")
}

// MessengerLink builds the wa.me deep link that opens a chat with phone
// prefilled with the order summary.
func MessengerLink(phone string, o Order) string {
	text := strings.ReplaceAll(url.QueryEscape(OrderSummary(o)), "+", "%20")
	return "https://wa.me/" + phone + "?text=" + text
}
