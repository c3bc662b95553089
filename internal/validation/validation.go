// Package validation wraps a shared go-playground validator that reports
// failures as domain.ValidationError keyed by json field names.
package validation

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

	"github.com/vncsmyrnk/pollsite/internal/core/domain"
)

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

type Service struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	once sync.Once
	svc  *Service
)

// Get returns the validator singleton, building it on first use.
func Get() *Service {
	once.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
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
		must(en_translations.RegisterDefaultTranslations(v, trans))

		must(v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		}))
		must(v.RegisterValidation("notnumeric", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || strings.Trim(s, "0123456789") != ""
		}))

		// {0} is the tag parameter, e.g. the 200 of max=200.
		must(register(v, trans, "required", "This field is required."))
		must(register(v, trans, "max", "Ensure this value has at most {0} characters."))
		must(register(v, trans, "min", "Ensure this value has at least {0} characters."))
		must(register(v, trans, "username",
			"Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."))
		must(register(v, trans, "notnumeric", "This password is entirely numeric."))

		svc = &Service{Validator: v, Translator: trans}
	})
	return svc
}

// Struct validates s. Field failures come back as *domain.ValidationError;
// anything else is returned unchanged.
func Struct(s any) error {
	err := Get().Validator.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &domain.ValidationError{}
	for _, fe := range verrs {
		out.Add(fieldPath(fe), fe.Translate(Get().Translator))
	}
	return out
}

// fieldPath drops the top-level struct name from the namespace, so
// "CreateQuestionInput.choices[1]" becomes "choices[1]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func register(v *validator.Validate, trans ut.Translator, tag, text string) error {
	withParam := strings.Contains(text, "{0}")
	return v.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, text, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			var params []string
			if withParam {
				params = append(params, fe.Param())
			}
			msg, err := ut.T(tag, params...)
			if err != nil {
				return fe.Error()
			}
			return msg
		},
	)
}

// must panics on registration errors.
func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("validation: %v", err))
	}
}
