package school

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const (
	dateLayout = "2006-01-02"

	// custom validation tags
	notBlankTag = "notblank"
	naturalTag  = "natural"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report fields by their JSON names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	_ = validate.RegisterValidation(naturalTag, naturalKeyValidation)
	registerCustomTranslations(notBlankTag, naturalTag)
}

func registerCustomTranslations(tags ...string) {
	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range tags {
		_ = validate.RegisterTranslation(tag, translator, registerFn, translateCustomErrs)
	}
}

func translateCustomErrs(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case naturalTag:
		return fe.Field() + " cannot be blank or contain '|'"
	default:
		return ""
	}
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

// naturalKeyValidation accepts a non-blank string without the composite key
// separator.
func naturalKeyValidation(fl validator.FieldLevel) bool {
	str, ok := fl.Field().Interface().(string)
	return ok && strings.TrimSpace(str) != "" && !strings.Contains(str, compositeSeparator)
}

// validateStruct validates v and converts validator errors to an *InputError.
func validateStruct(v any) error {
	return inputError("", validate.Struct(v))
}

// validateVar validates a single value under the given field name.
func validateVar(field string, value any, tag string) error {
	return inputError(field, validate.Var(value, tag))
}

func inputError(field string, err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &InputError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		name := fe.Field()
		msg := fe.Translate(translator)
		if field != "" {
			// Var errors carry no field name.
			name = field
			msg = field + " " + strings.TrimSpace(msg)
		}
		out.Fields[name] = msg
	}
	return out
}
