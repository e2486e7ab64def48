package config

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// ErrInvalid wraps every configuration validation failure.
var ErrInvalid = errors.New("invalid configuration")

var diffFilterRe = regexp.MustCompile(`^[ACDMRTUXBacdmrtuxb*]+$`)

var (
	vOnce  sync.Once
	vInst  *validator.Validate
	vTrans ut.Translator
)

func validatorInstance() (*validator.Validate, ut.Translator) {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())

		// prefer json tag names in messages
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})

		_ = en_translations.RegisterDefaultTranslations(v, trans)

		_ = v.RegisterValidation("difffilter", func(fl validator.FieldLevel) bool {
			return diffFilterRe.MatchString(fl.Field().String())
		})
		_ = v.RegisterTranslation("difffilter", trans,
			func(t ut.Translator) error {
				return t.Add("difffilter", "{0} must only contain git diff-filter letters (ACDMRTUXB or lowercase, *)", true)
			},
			func(t ut.Translator, fe validator.FieldError) string {
				msg, _ := t.T("difffilter", fe.Field())
				return msg
			},
		)

		vInst = v
		vTrans = trans
	})
	return vInst, vTrans
}

// Validate checks a Config or Options value and returns an ErrInvalid-wrapped
// error listing every failing field.
func Validate(v any) error {
	val, trans := validatorInstance()
	err := val.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(trans))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}
