package logger

import (
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// RedactEmail mascara um email para o log, mantendo os dois primeiros
// caracteres (runas, não bytes) do nome:
//
//	"john.doe@example.com" → "jo***@example.com"
//	"ab@example.com"       → "***@example.com"
func RedactEmail(email string) string {
	name, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return "***@***"
	}
	if r := []rune(name); len(r) > 2 {
		return string(r[:2]) + "***@" + domain
	}
	return "***@" + domain
}

func redactValue(key, val string) string {
	if strings.Contains(strings.ToLower(key), "email") {
		return RedactEmail(val)
	}
	return emailRegex.ReplaceAllStringFunc(val, RedactEmail)
}
