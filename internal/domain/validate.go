package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/gleejeyly/storefront/pkg/validator"
)

// Order form fields, in form order.
const (
	FieldFullName    = "fullName"
	FieldPhoneNumber = "phoneNumber"
	FieldFacebook    = "facebook"
	FieldPickupDate  = "pickupDate"
	FieldQuantity    = "quantity"
)

// Review form fields, in form order.
const (
	FieldName          = "name"
	FieldEmail         = "email"
	FieldComment       = "comment"
	FieldProductRating = "productRating"
	FieldServiceRating = "serviceRating"
)

const (
	MinPhoneDigits   = 10
	MinCommentLength = 10
)

// FieldError is a single failed form check.
type FieldError struct {
	Field   string
	Message string
}

// FormErrors lists every invalid field of a form, in form order.
type FormErrors struct {
	Errors []FieldError
}

func (e *FormErrors) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return "invalid form: " + strings.Join(msgs, "; ")
}

// First returns the first invalid field, the one a form would focus.
func (e *FormErrors) First() FieldError {
	if len(e.Errors) == 0 {
		return FieldError{}
	}
	return e.Errors[0]
}

// Message returns the message for field, or "" if it passed.
func (e *FormErrors) Message(field string) string {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

func (e *FormErrors) add(field, msg string) {
	if msg != "" {
		e.Errors = append(e.Errors, FieldError{Field: field, Message: msg})
	}
}

func (e *FormErrors) errOrNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// ValidateOrderField checks one raw order form value and returns the
// message to show, or "" when the value is acceptable.
func ValidateOrderField(field, value string) string {
	v := strings.TrimSpace(value)
	switch field {
	case FieldFullName:
		if v == "" {
			return "Full name is required"
		}
	case FieldPhoneNumber:
		if v == "" {
			return "Phone number is required"
		}
		if validator.CountDigits(v) < MinPhoneDigits {
			return "Please enter a valid phone number"
		}
	case FieldFacebook:
		if v == "" {
			return "Facebook account name is required"
		}
	case FieldPickupDate:
		if _, err := time.Parse(time.DateOnly, v); err != nil {
			return "Please select a pickup/delivery date"
		}
	case FieldQuantity:
		if q, err := strconv.Atoi(v); err != nil || q < 1 {
			return "Please select a valid quantity"
		}
	}
	return ""
}

// ValidateReviewField checks one raw review form value and returns the
// message to show, or "" when the value is acceptable.
func ValidateReviewField(field, value string) string {
	v := strings.TrimSpace(value)
	switch field {
	case FieldName:
		if v == "" {
			return "Name is required"
		}
	case FieldEmail:
		if v == "" {
			return "Email is required"
		}
		if !validator.EmailPattern.MatchString(v) {
			return "Please enter a valid email"
		}
	case FieldComment:
		if v == "" {
			return "Comment is required"
		}
		if len([]rune(v)) < MinCommentLength {
			return "Comment must be at least 10 characters"
		}
	case FieldProductRating:
		if r, err := strconv.Atoi(v); err != nil || r < 1 || r > MaxRating {
			return "Please rate the product"
		}
	case FieldServiceRating:
		if r, err := strconv.Atoi(v); err != nil || r < 1 || r > MaxRating {
			return "Please rate our service"
		}
	}
	return ""
}

// ValidateOrderForm checks every order field without stopping at the first
// failure. It returns a *FormErrors or nil.
func ValidateOrderForm(o Order) error {
	fe := &FormErrors{}
	fe.add(FieldFullName, ValidateOrderField(FieldFullName, o.FullName))
	fe.add(FieldPhoneNumber, ValidateOrderField(FieldPhoneNumber, o.PhoneNumber))
	fe.add(FieldFacebook, ValidateOrderField(FieldFacebook, o.Facebook))
	fe.add(FieldPickupDate, ValidateOrderField(FieldPickupDate, o.PickupDate))
	fe.add(FieldQuantity, ValidateOrderField(FieldQuantity, strconv.Itoa(o.Quantity)))
	return fe.errOrNil()
}

// ValidateReviewForm checks every review field without stopping at the
// first failure. It returns a *FormErrors or nil.
func ValidateReviewForm(r Review) error {
	fe := &FormErrors{}
	fe.add(FieldName, ValidateReviewField(FieldName, r.Name))
	fe.add(FieldEmail, ValidateReviewField(FieldEmail, r.Email))
	fe.add(FieldComment, ValidateReviewField(FieldComment, r.Comment))
	fe.add(FieldProductRating, ValidateReviewField(FieldProductRating, strconv.Itoa(r.ProductRating)))
	fe.add(FieldServiceRating, ValidateReviewField(FieldServiceRating, strconv.Itoa(r.ServiceRating)))
	return fe.errOrNil()
}
