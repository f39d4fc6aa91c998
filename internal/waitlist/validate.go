package waitlist

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxEmailLen = 254
	MaxFieldLen = 200
)

// Variant define quais campos o formulário exige.
type Variant string

const (
	VariantEmail Variant = "email"
	VariantFull  Variant = "full"
)

func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case "", VariantEmail:
		return VariantEmail, nil
	case VariantFull:
		return VariantFull, nil
	default:
		return "", fmt.Errorf("unknown form variant %q", s)
	}
}

// um único @, sem espaços dos dois lados e um ponto no domínio.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type Validator struct {
	Variant Variant
}

// Validate normaliza a submissão e devolve *ValidationError no primeiro campo inválido.
func (v Validator) Validate(s Submission) (Submission, error) {
	s.Email = NormalizeEmail(s.Email)
	s.Name = strings.TrimSpace(s.Name)
	s.Company = strings.TrimSpace(s.Company)

	if s.Email == "" {
		return s, &ValidationError{Field: "email", Message: "Email is required"}
	}
	if utf8.RuneCountInString(s.Email) > MaxEmailLen {
		return s, &ValidationError{Field: "email", Message: "Email is too long"}
	}
	if !emailPattern.MatchString(s.Email) {
		return s, &ValidationError{Field: "email", Message: "Invalid email format"}
	}

	if v.Variant == VariantFull {
		if s.Name == "" {
			return s, &ValidationError{Field: "name", Message: "Name is required"}
		}
		if s.Company == "" {
			return s, &ValidationError{Field: "company", Message: "Company is required"}
		}
	}
	if utf8.RuneCountInString(s.Name) > MaxFieldLen {
		return s, &ValidationError{Field: "name", Message: "Name is too long"}
	}
	if utf8.RuneCountInString(s.Company) > MaxFieldLen {
		return s, &ValidationError{Field: "company", Message: "Company is too long"}
	}
	return s, nil
}
