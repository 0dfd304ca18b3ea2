// Package validation содержит функции валидации входных данных.
package validation

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minNameLength     = 3
	maxNameLength     = 50
	minPasswordLength = 6
	// bcrypt не принимает пароли длиннее 72 байт.
	maxPasswordBytes = 72
	maxEmailBytes    = 255
)

// NormalizeEmail приводит адрес к каноническому виду: без пробелов по краям и в нижнем регистре.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail проверяет, что адрес имеет вид local@domain.tld и не содержит пробелов.
func IsValidEmail(email string) bool {
	if email == "" || len(email) > maxEmailBytes {
		return false
	}

	for _, ch := range email {
		if unicode.IsSpace(ch) {
			return false
		}
	}

	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}

	domain := email[at+1:]
	dot := strings.LastIndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-1
}

// IsValidName проверяет длину отображаемого имени.
func IsValidName(name string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	return n >= minNameLength && n <= maxNameLength
}

// IsValidPassword проверяет длину пароля: не короче 6 символов и не длиннее 72 байт.
func IsValidPassword(password string) bool {
	return utf8.RuneCountInString(password) >= minPasswordLength && len(password) <= maxPasswordBytes
}
