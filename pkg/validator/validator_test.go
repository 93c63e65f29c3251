package validator

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reviewForm struct {
	Name    string `json:"name" validate:"notblank"`
	Email   string `json:"email" validate:"required,looseemail"`
	Rating  int    `json:"productRating" validate:"gte=1,lte=5"`
	Comment string `json:"comment" validate:"trimmin=10"`
}

type orderForm struct {
	Phone string `json:"phoneNumber" validate:"phonedigits=10"`
	Date  string `json:"pickupDate" validate:"isodate"`
}

func validReview() reviewForm {
	return reviewForm{Name: "Ana", Email: "ana@example.com", Rating: 5, Comment: "Creamy and light!"}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	return valErr.Fields()
}

func TestValidate_Success(t *testing.T) {
	assert.NoError(t, Validate(validReview()))
	assert.NoError(t, Validate(orderForm{Phone: "0912-345-6789", Date: "2026-10-25"}))
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	s := validReview()
	s.Rating = 0

	fields := fieldsOf(t, Validate(s))
	assert.Contains(t, fields, "productRating")
	assert.Equal(t, "must be greater than or equal to 1", fields["productRating"])
}

func TestValidate_NotBlank(t *testing.T) {
	s := validReview()
	s.Name = "   "

	fields := fieldsOf(t, Validate(s))
	assert.Equal(t, "is required", fields["name"])
}

func TestValidate_TrimMin(t *testing.T) {
	s := validReview()
	s.Comment = "   too short   "

	fields := fieldsOf(t, Validate(s))
	assert.Equal(t, "must be at least 10 characters", fields["comment"])
}

func TestValidate_PhoneDigits(t *testing.T) {
	fields := fieldsOf(t, Validate(orderForm{Phone: "(02) 123-45", Date: "2026-10-25"}))
	assert.Equal(t, "must contain at least 10 digits", fields["phoneNumber"])
}

func TestValidate_ISODate(t *testing.T) {
	fields := fieldsOf(t, Validate(orderForm{Phone: "09123456789", Date: "10/25/2026"}))
	assert.Equal(t, "must be a date in YYYY-MM-DD format", fields["pickupDate"])
}

func TestValidate_LooseEmail(t *testing.T) {
	for _, bad := range []string{"ana", "ana@example", "ana example@x.com", "@example.com"} {
		f := validReview()
		f.Email = bad
		assert.Equal(t, "must be a valid email address", fieldsOf(t, Validate(f))["email"], bad)
	}
	f := validReview()
	f.Email = "a@b.c"
	assert.NoError(t, Validate(f))
}

func TestValidate_MultipleErrors(t *testing.T) {
	fields := fieldsOf(t, Validate(reviewForm{}))
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "productRating")
	assert.Contains(t, fields, "comment")
}

func TestValidationError_ErrorString(t *testing.T) {
	err := Validate(reviewForm{Email: "ana@example.com", Rating: 3, Comment: "long enough text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'name'")
	assert.Contains(t, err.Error(), "is required")
}

func TestCountDigits(t *testing.T) {
	assert.Equal(t, 11, CountDigits("+63 912-345-6789"))
	assert.Equal(t, 0, CountDigits("call me"))
}

func TestDecodeAndValidate_Success(t *testing.T) {
	body := `{"name":"Ana","email":"ana@example.com","productRating":4,"comment":"Would order again"}`
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))

	var s reviewForm
	require.NoError(t, DecodeAndValidate(req, &s))
	assert.Equal(t, "Ana", s.Name)
	assert.Equal(t, 4, s.Rating)
}

func TestDecodeAndValidate_EmptyBody(t *testing.T) {
	var s reviewForm

	noBody := httptest.NewRequest(http.MethodPost, "/", nil)
	assert.ErrorIs(t, DecodeAndValidate(noBody, &s), ErrEmptyBody)

	blank := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.ErrorIs(t, DecodeAndValidate(blank, &s), ErrEmptyBody)
}

func TestDecodeAndValidate_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{invalid"))

	var s reviewForm
	err := DecodeAndValidate(req, &s)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}
