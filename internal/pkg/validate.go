package pkg

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/simp-lee/ruelucas/internal/domain"
)

// NewValidator returns a validator that reports fields by their form name and
// knows the struct-level rules of the domain drafts.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(formTagName)
	domain.RegisterValidation(v)
	return v
}

// ValidateDraft validates d and converts failures into a CodeValidation
// AppError carrying one French message per field.
func ValidateDraft(v *validator.Validate, d any) error {
	err := v.Struct(d)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return domain.NewAppError(domain.CodeInternal, "validate draft", err)
	}

	fields := make(domain.FieldErrors, len(ve))
	for _, fe := range ve {
		if _, exists := fields[fe.Field()]; exists {
			continue
		}
		fields[fe.Field()] = fieldMessage(fe)
	}
	return domain.NewValidationError(fields)
}

// fieldMessage renders one failed rule as a message for the form.
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Ce champ est obligatoire"
	case "email":
		return "Adresse email invalide"
	case "datetime":
		return "Date invalide (format AAAA-MM-JJ)"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Au moins %s caractères", fe.Param())
		}
		return fmt.Sprintf("Doit être supérieur ou égal à %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Au plus %s caractères", fe.Param())
		}
		return fmt.Sprintf("Doit être inférieur ou égal à %s", fe.Param())
	case "oneof":
		return "Valeur non autorisée"
	case "finite":
		return "Montant invalide"
	case "after_checkin":
		return "Le check-out doit être postérieur au check-in"
	default:
		return "Valeur invalide"
	}
}

// formTagName names a struct field after its form tag, falling back to json.
func formTagName(f reflect.StructField) string {
	for _, key := range []string{"form", "json"} {
		name, _, _ := strings.Cut(f.Tag.Get(key), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}
