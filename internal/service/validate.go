package service

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"sendit/messenger/internal/pkg/apperr"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	_ = validate.RegisterValidation("password", validatePassword)
}

// validatePassword requires at least one special, lowercase, uppercase and
// numeric character, and no whitespace.
func validatePassword(fl validator.FieldLevel) bool {
	var special, lower, upper, digit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsSpace(r):
			return false
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	return special && lower && upper && digit
}

// validateInput checks the validate tags of input and reports every failing
// field in the error metadata.
func validateInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal("failed to validate input", err)
	}

	metadata := make(map[string]string, len(verrs))
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		metadata[fe.Field()] = fe.Tag()
		fields = append(fields, fe.Field())
	}

	return apperr.WithMetadata(apperr.CodeValidation,
		"invalid input: "+strings.Join(fields, ", "), metadata)
}

type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3"`
	Phone    string `json:"phone" validate:"required,numeric,len=10,startsnotwith=0"`
	Email    string `json:"email" validate:"required,min=6,email"`
	Password string `json:"password" validate:"required,password"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyOTPInput struct {
	Email string `json:"email"`
	Code  string `json:"otp"`
}

type AddContactInput struct {
	Name  string `json:"name" validate:"required,min=3"`
	Phone string `json:"phone" validate:"required,numeric,min=9,max=10"`
}

type CreateConversationInput struct {
	Message      string   `json:"message" validate:"required"`
	Participants []string `json:"participants" validate:"required,min=1,dive,required"`
	// Name is required once the conversation has more than two participants.
	Name string `json:"name" validate:"omitempty,min=2"`
}

type CreateGroupInput struct {
	Participants []string `json:"participants" validate:"required,min=2,dive,required"`
	Name         string   `json:"name" validate:"omitempty,min=2"`
}

type AppendMessageInput struct {
	Message string `json:"message" validate:"required"`
}

type ReactionInput struct {
	MessageID string `json:"messageId" validate:"required"`
	SenderID  string `json:"senderId" validate:"required"`
	Reaction  string `json:"reaction" validate:"required"`
}
