package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/fedutinova/mcqgen/internal/common"
	"github.com/fedutinova/mcqgen/internal/mcq"
	"github.com/go-playground/validator/v10"
)

const (
	MaxFileSize = 10 << 20 // 10mb
)

var AllowedExtensions = map[string]bool{
	"pdf":  true,
	"txt":  true,
	"docx": true,
}

const invalidFormatMessage = "Invalid file format. Only PDF, TXT, and DOCX files are allowed."

type ValidationErrors []common.ValidationError

func (e ValidationErrors) Error() string {
	var messages []string
	for _, err := range e {
		messages = append(messages, err.Message)
	}
	return strings.Join(messages, "; ")
}

// Is implements errors.Is for ValidationErrors
func (e ValidationErrors) Is(target error) bool {
	return target == common.ErrValidation
}

// Details exposes the per-field errors.
func (e ValidationErrors) Details() []common.ValidationError {
	return e
}

// GenerateRequest is the validated input of one generation.
type GenerateRequest struct {
	Extension    string `form:"file" validate:"required,oneof=pdf txt docx"`
	NumQuestions int    `form:"num_questions" validate:"gte=1,lte=50"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Extension returns the lower-cased text after the last dot of the base
// name, or "" when there is no dot.
func Extension(filename string) string {
	base := BaseName(filename)
	i := strings.LastIndex(base, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(base[i+1:])
}

// BaseName strips any client-side directory, including Windows paths.
func BaseName(filename string) string {
	if i := strings.LastIndexAny(filename, `/\`); i >= 0 {
		filename = filename[i+1:]
	}
	return filename
}

// ValidateFilename rejects names whose extension is not supported.
func ValidateFilename(filename string) ValidationErrors {
	if !AllowedExtensions[Extension(filename)] {
		return ValidationErrors{{Field: "file", Message: invalidFormatMessage}}
	}
	return nil
}

// ValidateNumQuestions rejects counts outside the allowed range.
func ValidateNumQuestions(numQuestions int) ValidationErrors {
	if !mcq.ValidCount(numQuestions) {
		return ValidationErrors{countError(numQuestions)}
	}
	return nil
}

func countError(numQuestions int) common.ValidationError {
	msg := fmt.Sprintf("num_questions must be between %d and %d, got %d",
		mcq.MinQuestions, mcq.MaxQuestions, numQuestions)
	return common.ValidationError{Field: "num_questions", Message: msg}
}

// ValidateGenerateRequest checks the upload name and the question count.
func ValidateGenerateRequest(filename string, numQuestions int) ValidationErrors {
	req := GenerateRequest{
		Extension:    Extension(filename),
		NumQuestions: numQuestions,
	}

	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{{Field: "request", Message: err.Error()}}
	}

	var out ValidationErrors
	for _, fe := range fieldErrs {
		switch fe.Field() {
		case "file":
			out = append(out, common.ValidationError{Field: "file", Message: invalidFormatMessage})
		case "num_questions":
			out = append(out, countError(numQuestions))
		default:
			out = append(out, common.ValidationError{Field: fe.Field(), Message: fe.Error()})
		}
	}
	return out
}
