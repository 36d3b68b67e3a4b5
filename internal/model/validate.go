package model

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize applies the input filters of the item form: the account keeps
// only digits, the invite code is upper-cased and keeps only ASCII letters and
// digits. Surrounding whitespace is trimmed from the usage count.
func (f Fields) Normalize() Fields {
	f.Account = strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, f.Account)
	f.InviteCode = strings.Map(func(r rune) rune {
		r = unicode.ToUpper(r)
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, f.InviteCode)
	f.UsageCount = strings.TrimSpace(f.UsageCount)
	return f
}

// Validate checks the fields against the item rules.
func (f Fields) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Account":
		if fe.Tag() == "required" {
			return "account is required"
		}
		return "account must be 4-12 digits"
	case "InviteCode":
		return "invite code must be at most 6 uppercase letters or digits"
	case "UsageCount":
		return "usage count must be a number"
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
