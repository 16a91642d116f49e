package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the only accepted calendar format for dates in forms.
const DateLayout = "2006-01-02"

var (
	validate *validator.Validate

	isbn10 = regexp.MustCompile(`^\d{9}[\dX]$`)
	isbn13 = regexp.MustCompile(`^\d{13}$`)
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = validate.RegisterValidation("isbn", validateISBN)
}

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NormalizeISBN strips the separators people commonly type into ISBNs.
func NormalizeISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	isbn = strings.ReplaceAll(isbn, " ", "")
	return strings.ToUpper(strings.TrimSpace(isbn))
}

// IsISBN reports whether isbn is a 10 or 13 character ISBN after normalization.
func IsISBN(isbn string) bool {
	isbn = NormalizeISBN(isbn)
	switch len(isbn) {
	case 10:
		return isbn10.MatchString(isbn)
	case 13:
		return isbn13.MatchString(isbn)
	}
	return false
}

func validateISBN(fl validator.FieldLevel) bool {
	return IsISBN(fl.Field().String())
}

// Struct validates s against its `validate` tags.
func Struct(s any) []FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "input", Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "isbn":
		return fmt.Sprintf("%s must be a valid ISBN (10 or 13 digits)", field)
	case "datetime":
		return "Incorrect date format. Please use yyyy-mm-dd."
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
