package domain

import "unicode/utf8"

const MinPasswordLength = 8

// CheckPasswordStrength applies the sign-up password rule: at least eight
// characters with an ASCII lower-case letter, an upper-case letter and a
// digit. It returns nil or a *ValidationError listing every unmet requirement.
func CheckPasswordStrength(password string) error {
	var hasLower, hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}

	var problems []string
	if utf8.RuneCountInString(password) < MinPasswordLength {
		problems = append(problems, "Your password must be at least 8 characters long.")
	}
	if !hasLower {
		problems = append(problems, "Your password must contain at least one lowercase letter.")
	}
	if !hasUpper {
		problems = append(problems, "Your password must contain at least one uppercase letter.")
	}
	if !hasDigit {
		problems = append(problems, "Your password must contain at least one digit.")
	}

	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Field: "password", Problems: problems}
}
