package compiler

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/traitc/internal/trait"
)

// Validation error codes (E200-E299)
const (
	ErrUnsupportedType   = "E200" // unsupported value passed to Validate
	ErrRequired          = "E201" // required field missing
	ErrIllegalIdentifier = "E202" // not a legal identifier
	ErrIllegalQualified  = "E203" // not a legal qualified name
	ErrIllegalDataType   = "E204" // unparseable data type
	ErrNotClassType      = "E205" // exception type is not a class
	ErrIllegalUID        = "E206" // uid is not a UUID
	ErrIllegalLanguage   = "E207" // script language may not be used
	ErrDuplicateBehavior = "E208" // two behaviors share a signature
	ErrUnknownInterface  = "E209" // implemented interface not found
	ErrVoidParameter     = "E210" // parameter of type void
	ErrIllegalMode       = "E211" // unknown component mode
	ErrInheritanceCycle  = "E212" // super/implements chain loops
	ErrDuplicateThrows   = "E213" // exception declared twice
	ErrIllegalAttribute  = "E214" // flag value cannot be parsed
	ErrIllegalValue      = "E299" // any other constraint
)

var tagCodes = map[string]string{
	"required":   ErrRequired,
	"identifier": ErrIllegalIdentifier,
	"qualified":  ErrIllegalQualified,
	"datatype":   ErrIllegalDataType,
	"classtype":  ErrNotClassType,
	"uuid":       ErrIllegalUID,
	"language":   ErrIllegalLanguage,
	"nonvoid":    ErrVoidParameter,
	"oneof":      ErrIllegalMode,
}

// ValidationError represents a definition validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// DefinitionError reports every validation error of one component.
type DefinitionError struct {
	Component string
	Errors    []ValidationError
}

func (e *DefinitionError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, v := range e.Errors {
		msgs[i] = v.Error()
	}
	return fmt.Sprintf("component %s: %s", e.Component, strings.Join(msgs, "; "))
}

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// report fields by their definition keys
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return strings.ToLower(f.Name)
		}
		return name
	})

	_ = validate.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return trait.IsIdentifierLegal(fl.Field().String())
	})
	_ = validate.RegisterValidation("qualified", func(fl validator.FieldLevel) bool {
		return isQualifiedName(fl.Field().String())
	})
	_ = validate.RegisterValidation("datatype", func(fl validator.FieldLevel) bool {
		_, err := trait.ParseDataType(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation("classtype", func(fl validator.FieldLevel) bool {
		t, err := trait.ParseDataType(fl.Field().String())
		return err == nil && t.IsClass()
	})
	_ = validate.RegisterValidation("nonvoid", func(fl validator.FieldLevel) bool {
		t, err := trait.ParseDataType(fl.Field().String())
		return err == nil && !t.IsVoid()
	})
	_ = validate.RegisterValidation("language", func(fl validator.FieldLevel) bool {
		return trait.IsLanguageLegal(fl.Field().String())
	})
}

// isQualifiedName reports whether s is a dotted sequence of identifiers.
func isQualifiedName(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if !trait.IsIdentifierLegal(part) {
			return false
		}
	}
	return true
}

// Validate checks a definition and returns all errors found (does not
// fail-fast), ordered by field.
func Validate(v any) []ValidationError {
	var def *ComponentDef
	switch d := v.(type) {
	case *ComponentDef:
		def = d
	case ComponentDef:
		def = &d
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported definition type: %T", v),
			Code:    ErrUnsupportedType,
		}}
	}

	err := validate.Struct(def)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ValidationError{{Field: "component", Message: err.Error(), Code: ErrIllegalValue}}
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		code, ok := tagCodes[fe.Tag()]
		if !ok {
			code = ErrIllegalValue
		}
		// drop the root struct name from the namespace
		_, field, _ := strings.Cut(fe.Namespace(), ".")
		out = append(out, ValidationError{
			Field:   field,
			Message: describeFailure(fe),
			Code:    code,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

func describeFailure(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "identifier":
		return fmt.Sprintf("%q is not a legal identifier", fe.Value())
	case "qualified":
		return fmt.Sprintf("%q is not a legal qualified name", fe.Value())
	case "datatype":
		return fmt.Sprintf("%q is not a data type", fe.Value())
	case "classtype":
		return fmt.Sprintf("%q is not a class type", fe.Value())
	case "nonvoid":
		return "parameters cannot be void"
	case "uuid":
		return fmt.Sprintf("%q is not a UUID", fe.Value())
	case "language":
		return fmt.Sprintf("language %q cannot be used for new scripts", fe.Value())
	case "oneof":
		return fmt.Sprintf("%q must be one of %s", fe.Value(), fe.Param())
	default:
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}
