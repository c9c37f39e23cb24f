package validation

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/fhuszti/levigram-go/internal/uuid"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9._]+$`)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Tell the validator to use the JSON tag as the “field name”
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// draft and media IDs validate as their canonical string, the zero UUID as empty
	validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
		id, ok := v.Interface().(uuid.UUID)
		if !ok || id.IsZero() {
			return ""
		}
		return id.String()
	}, uuid.UUID{})

	// b64url: base64url with or without padding, as browsers send push keys
	_ = validate.RegisterValidation("b64url", func(fl validator.FieldLevel) bool {
		_, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(fl.Field().String(), "="))
		return err == nil
	})

	_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// ErrorsToJson flattens validation errors into {"field":"tag"}.
func ErrorsToJson(validationErrs error) (string, error) {
	errsMap := make(map[string]string)
	var fieldErrs validator.ValidationErrors
	if errors.As(validationErrs, &fieldErrs) {
		for _, fieldErr := range fieldErrs {
			errsMap[fieldErr.Field()] = fieldErr.Tag()
		}
	} else {
		errsMap["_"] = validationErrs.Error()
	}

	errsJson, err := json.Marshal(errsMap)
	if err != nil {
		return "", err
	}
	return string(errsJson), nil
}
