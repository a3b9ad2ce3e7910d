package validation

import "strings"

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

func (v Violations) Error() string {
	parts := make([]string, 0, len(v))
	for field, code := range v {
		parts = append(parts, field+": "+code)
	}
	return strings.Join(parts, "; ")
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func MaxLen(field, value string, limit int, v Violations) {
	if len(value) > limit {
		v[field] = "too_long"
	}
}

func Email(field, value string, v Violations) {
	at := strings.Index(value, "@")
	if at <= 0 || at == len(value)-1 || !strings.Contains(value[at+1:], ".") {
		v[field] = "invalid_email"
	}
}

// SIRET accepts the French 14-digit establishment identifier; spaces are
// display formatting and ignored.
func SIRET(field, value string, v Violations) {
	digits := strings.ReplaceAll(value, " ", "")
	if len(digits) != 14 {
		v[field] = "invalid_siret"
		return
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			v[field] = "invalid_siret"
			return
		}
	}
}

func OneOf(field, value string, allowed []string, v Violations) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v[field] = "not_allowed"
}

// Password enforces the signup rules: at least 8 characters with an
// uppercase letter, a lowercase letter, a digit and a special character.
func Password(field, value string, v Violations) {
	if len(value) < 8 {
		v[field] = "too_short"
		return
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		default:
			hasSpecial = true
		}
	}
	switch {
	case !hasUpper:
		v[field] = "needs_uppercase"
	case !hasLower:
		v[field] = "needs_lowercase"
	case !hasDigit:
		v[field] = "needs_digit"
	case !hasSpecial:
		v[field] = "needs_special"
	}
}
