package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/utils"

	govalidator "github.com/go-playground/validator/v10"
)

// New returns a validator with the project's custom tags registered.
func New() *govalidator.Validate {
	v := govalidator.New(govalidator.WithRequiredStructEnabled())
	v.RegisterValidation("username", ValidateUsername)
	v.RegisterValidation("slug", ValidateSlug)
	v.RegisterValidation("slugorempty", ValidateSlugOrEmpty)
	v.RegisterValidation("notfutureyear", ValidateNotFutureYear)
	v.RegisterValidation("role", ValidateRole)
	return v
}

func structType(obj any) reflect.Type {
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func getFieldName(obj any, origFieldName string) (fieldName string) {
	t := structType(obj)
	field, found := t.FieldByName(origFieldName)
	if !found {
		panic(fmt.Sprintf("Field %s not found in type %s", origFieldName, t.Name()))
	}
	if tag := field.Tag.Get("json"); tag != "" && tag != "-" {
		jsonName := strings.Split(tag, ",")[0]
		if jsonName != "" {
			fieldName = jsonName
		}
	} else if tag := field.Tag.Get("schema"); tag != "" && tag != "-" {
		fieldName = strings.Split(tag, ",")[0]
	} else {
		fieldName = utils.CamelToSnake(origFieldName)
	}
	return
}

func ProcessValidationErrors(obj any, errs govalidator.ValidationErrors) map[string]string {
	processedErrors := make(map[string]string)
	for _, e := range errs {
		processedErrors[getFieldName(obj, e.StructField())] = GetErrorMsgForField(obj, e)
	}
	return processedErrors
}

func ValidateStruct(validator *govalidator.Validate, obj any) (validationErrs map[string]string) {
	if err := validator.Struct(obj); err != nil {
		validationErrs = ProcessValidationErrors(obj, err.(govalidator.ValidationErrors))
	}
	return
}

func GetErrorMsgForField(obj any, err govalidator.FieldError) (errorMsg string) {
	t := structType(obj)
	field, found := t.FieldByName(err.StructField())
	if !found {
		panic(fmt.Sprintf("Field %s not found in type %s", err.StructField(), t.Name()))
	}
	errorMsg = field.Tag.Get("errorMsg")
	if errorMsg == "" {
		switch err.Tag() {
		case "required":
			errorMsg = "This field is required"
		case "max":
			if err.Kind() == reflect.String {
				errorMsg = fmt.Sprintf("The maximum length is %s", err.Param())
			} else {
				errorMsg = fmt.Sprintf("The maximum value is %s", err.Param())
			}
		case "min":
			if err.Kind() == reflect.String {
				errorMsg = fmt.Sprintf("The minimum length is %s", err.Param())
			} else {
				errorMsg = fmt.Sprintf("The minimum value is %s", err.Param())
			}
		case "gte":
			errorMsg = fmt.Sprintf("Value should be greater than or equal to %s", err.Param())
		case "lte":
			errorMsg = fmt.Sprintf("Value should be less than or equal to %s", err.Param())
		case "lt":
			errorMsg = fmt.Sprintf("Value should be less than %s", err.Param())
		case "gt":
			errorMsg = fmt.Sprintf("Value should be greater than %s", err.Param())
		case "oneof":
			errorMsg = fmt.Sprintf("Value should be one of %s", err.Param())
		case "unique":
			errorMsg = "Value must not contain duplicate values"
		case "email":
			errorMsg = "Value must be a valid email address"
		case "username":
			errorMsg = usernameErrorMsg(err.Value())
		case "slug", "slugorempty":
			errorMsg = "Value may contain only latin letters, digits, hyphens and underscores"
		case "notfutureyear":
			errorMsg = "Year can't be greater than the current one"
		case "role":
			errorMsg = fmt.Sprintf("Value should be one of %s %s %s", models.RoleUser, models.RoleModerator, models.RoleAdmin)
		default:
			errorMsg = "This field is invalid"
		}
	}
	return
}

func usernameErrorMsg(value any) string {
	s, _ := value.(string)
	if p, ok := value.(*string); ok && p != nil {
		s = *p
	}
	if err := models.ValidateUsername(s); err != nil {
		return err.Error()
	}
	return "This field is invalid"
}

// CUSTOM VALIDATORS

func fieldString(fl govalidator.FieldLevel) string {
	return fl.Field().String()
}

func ValidateUsername(fl govalidator.FieldLevel) bool {
	return models.ValidateUsername(fieldString(fl)) == nil
}

var slugRx = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

func ValidateSlug(fl govalidator.FieldLevel) bool {
	return slugRx.MatchString(fieldString(fl))
}

// ValidateSlugOrEmpty lets a partial update send "" to clear a reference.
func ValidateSlugOrEmpty(fl govalidator.FieldLevel) bool {
	s := fieldString(fl)
	return s == "" || slugRx.MatchString(s)
}

func ValidateNotFutureYear(fl govalidator.FieldLevel) bool {
	return fl.Field().Int() <= int64(time.Now().Year())
}

func ValidateRole(fl govalidator.FieldLevel) bool {
	return models.Role(fieldString(fl)).Valid()
}
