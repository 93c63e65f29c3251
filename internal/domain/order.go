package domain

import (
	"strconv"
	"time"
)

// Pricing and scheduling constants for the single product on sale.
const (
	ProductName       = "Cheesecake"
	UnitPriceCentavos = 2500
	MinLeadDays       = 3
)

// Order represents a pickup order. Amounts are decimal pesos on the wire.
type Order struct {
	ID          int64     `json:"id"`
	FullName    string    `json:"fullName"`
	PhoneNumber string    `json:"phoneNumber"`
	Facebook    string    `json:"facebook"`
	PickupDate  string    `json:"pickupDate"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unitPrice"`
	Total       float64   `json:"total"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TotalCentavos returns quantity times the unit price, in centavos.
func (o *Order) TotalCentavos() int64 {
	return int64(o.Quantity) * UnitPriceCentavos
}

// Price fills in the unit price and recomputes the total from the quantity,
// discarding whatever total the caller supplied.
func (o *Order) Price() {
	o.UnitPrice = Pesos(UnitPriceCentavos)
	o.Total = Pesos(o.TotalCentavos())
}

// Pesos converts an amount in centavos to decimal pesos.
func Pesos(centavos int64) float64 {
	return float64(centavos) / 100
}

// FormatPesos renders an amount the way the storefront shows it: "50",
// "62.5".
func FormatPesos(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// NewRecordID derives a record ID from t in Unix milliseconds.
func NewRecordID(t time.Time) int64 {
	return t.UnixMilli()
}

// MinPickupDate returns the earliest date a customer may pick up an order
// placed at now: midnight of today plus MinLeadDays, in now's location.
func MinPickupDate(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+MinLeadDays, 0, 0, 0, 0, now.Location())
}

// PickupBeforeFloor reports whether pickupDate (YYYY-MM-DD) falls before
// MinPickupDate(now). Unparseable dates report false.
func PickupBeforeFloor(pickupDate string, now time.Time) bool {
	d, err := time.ParseInLocation(time.DateOnly, pickupDate, now.Location())
	if err != nil {
		return false
	}
	return d.Before(MinPickupDate(now))
}
