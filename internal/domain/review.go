package domain

import "time"

// ReviewDateLayout is the display format of Review.Date.
const ReviewDateLayout = "01/02/2006"

// MaxRating is the highest star rating.
const MaxRating = 5

// Review is a customer review. A rating of 0 means unrated.
type Review struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	ProductRating int    `json:"productRating"`
	ServiceRating int    `json:"serviceRating"`
	Comment       string `json:"comment"`
	Date          string `json:"date"`
}

// Stamp assigns an ID and display date derived from now where absent.
func (r *Review) Stamp(now time.Time) {
	if r.ID == 0 {
		r.ID = NewRecordID(now)
	}
	if r.Date == "" {
		r.Date = now.Format(ReviewDateLayout)
	}
}
