package validate

import (
	"strings"
	"testing"
)

type testInput struct {
	Name      string `json:"name" validate:"required,max=10"`
	BirthDate string `json:"birth_date" validate:"required,datetime=2006-01-02"`
	ISBN      string `json:"isbn" validate:"omitempty,isbn"`
	Rating    *int   `json:"rating" validate:"omitempty,gte=1,lte=10"`
}

func intPtr(i int) *int { return &i }

func fieldErrors(errs []FieldError, field string) []FieldError {
	var out []FieldError
	for _, e := range errs {
		if e.Field == field {
			out = append(out, e)
		}
	}
	return out
}

func TestStruct_ValidInput(t *testing.T) {
	s := testInput{Name: "Poe", BirthDate: "1809-01-19", ISBN: "978-0-123456-78-9", Rating: intPtr(7)}

	if errs := Struct(s); len(errs) != 0 {
		t.Errorf("expected no validation errors, got %v", errs)
	}
}

func TestStruct_RequiredFieldsUseJSONNames(t *testing.T) {
	errs := Struct(testInput{})

	for _, field := range []string{"name", "birth_date"} {
		got := fieldErrors(errs, field)
		if len(got) != 1 || !strings.Contains(got[0].Message, "required") {
			t.Errorf("expected one required error for %s, got %v", field, errs)
		}
	}
}

func TestStruct_DateFormat(t *testing.T) {
	errs := Struct(testInput{Name: "Poe", BirthDate: "19/01/1809"})

	got := fieldErrors(errs, "birth_date")
	if len(got) != 1 || got[0].Message != "Incorrect date format. Please use yyyy-mm-dd." {
		t.Errorf("expected date format error, got %v", errs)
	}
}

func TestStruct_RatingRange(t *testing.T) {
	testCases := []struct {
		rating *int
		valid  bool
	}{
		{nil, true},
		{intPtr(1), true},
		{intPtr(10), true},
		{intPtr(0), false},
		{intPtr(11), false},
	}

	for _, tc := range testCases {
		errs := Struct(testInput{Name: "Poe", BirthDate: "1809-01-19", Rating: tc.rating})
		hasErr := len(fieldErrors(errs, "rating")) > 0
		if tc.valid == hasErr {
			t.Errorf("rating %v: valid=%v but errors=%v", tc.rating, tc.valid, errs)
		}
	}
}

func TestIsISBN(t *testing.T) {
	testCases := []struct {
		isbn  string
		valid bool
	}{
		{"9780123456789", true},
		{"0123456789", true},
		{"012345678X", true},
		{"012345678x", true},
		{"978-0-123456-78-9", true},
		{"978 0 123456 78 9", true},
		{"invalid", false},
		{"12345", false},
		{"", false},
	}

	for _, tc := range testCases {
		if got := IsISBN(tc.isbn); got != tc.valid {
			t.Errorf("IsISBN(%q) = %v, want %v", tc.isbn, got, tc.valid)
		}
	}
}

func TestNormalizeISBN(t *testing.T) {
	if got := NormalizeISBN(" 978-0-123456-78-9 "); got != "9780123456789" {
		t.Errorf("NormalizeISBN = %q", got)
	}
	if got := NormalizeISBN("012345678x"); got != "012345678X" {
		t.Errorf("NormalizeISBN = %q", got)
	}
}
