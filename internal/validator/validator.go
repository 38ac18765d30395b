package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// trans is the singleton English translator for validation errors.
var (
	trans     ut.Translator
	setupOnce sync.Once
)

// ErrMalformed marks request bodies that could not be decoded at all.
var ErrMalformed = errors.New("malformed request body")

// FieldErrors is returned by Bind when the body decoded but failed
// validation. Keys are JSON field names.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	return fmt.Sprintf("%d invalid field(s)", len(f))
}

// Setup registers the validator with English translations on Gin's binding engine.
// Safe to call more than once.
func Setup() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*govalidator.Validate)
		if !ok {
			return
		}
		// Use JSON tag name for field names in error messages.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		enLocale := en.New()
		uni := ut.New(enLocale, enLocale)
		trans, _ = uni.GetTranslator("en")
		_ = en_translations.RegisterDefaultTranslations(v, trans)
	})
}

// TranslateErrors converts validator errors into a field → message map.
// It returns nil if err is not a validation error.
func TranslateErrors(err error) FieldErrors {
	var ve govalidator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	fields := make(FieldErrors, len(ve))
	for _, fe := range ve {
		if trans != nil {
			fields[fe.Field()] = fe.Translate(trans)
		} else {
			fields[fe.Field()] = fe.Error()
		}
	}
	return fields
}

// Bind decodes and validates the JSON body into dst. It returns nil on
// success, FieldErrors when validation failed, and an error wrapping
// ErrMalformed when the body is not the expected JSON.
func Bind(c *gin.Context, dst interface{}) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}
	if fields := TranslateErrors(err); fields != nil {
		return fields
	}
	return fmt.Errorf("%w: %v", ErrMalformed, err)
}
