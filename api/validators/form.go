package validators

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/shopcase-backend/pkg/errors"
)

const maxNameLength = 255

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// ProductForm is the multipart payload for create/update. Price stays a raw
// string here; ParsePrice turns it into a decimal after presence checks.
type ProductForm struct {
	Name  string `form:"name" validate:"required"`
	Price string `form:"price" validate:"required"`
}

// DecodeProductForm reads the product fields out of an already-parsed
// multipart form.
func DecodeProductForm(r *http.Request) (ProductForm, error) {
	if r.MultipartForm == nil {
		return ProductForm{}, pkgerrors.New(pkgerrors.CodeValidation, "multipart form expected")
	}

	form := ProductForm{
		Name:  SanitizeString(r.FormValue("name"), maxNameLength),
		Price: SanitizeString(r.FormValue("price"), 64),
	}
	if err := validate.Struct(form); err != nil {
		return ProductForm{}, formatValidationErrors(err)
	}
	return form, nil
}

// FormFile returns the first uploaded file for the field, or nil when the
// field is absent.
func FormFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil
	}
	return headers[0]
}

// ParsePrice parses a decimal price string.
func ParsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "price must be a number").
			WithDetails(map[string]string{"price": "must be a number"})
	}
	return price, nil
}

func formatValidationErrors(err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	}
	return "is invalid"
}
