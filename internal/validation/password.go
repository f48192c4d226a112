// Package validation holds the pure form rules shared by the signup flow and the
// article wizard. Nothing here touches I/O.
package validation

// MinPasswordLength is the shortest password accepted at signup.
const MinPasswordLength = 8

// PasswordStrength reports which of the signup password requirements are met.
type PasswordStrength struct {
	LengthOK bool `json:"length_ok"`
	HasUpper bool `json:"has_upper"`
	HasLower bool `json:"has_lower"`
	HasDigit bool `json:"has_digit"`
}

// Acceptable is true when every requirement holds.
func (p PasswordStrength) Acceptable() bool {
	return p.LengthOK && p.HasUpper && p.HasLower && p.HasDigit
}

// Unmet returns human-readable descriptions of the requirements that fail,
// in the order they are shown on the signup form.
func (p PasswordStrength) Unmet() []string {
	var out []string
	if !p.LengthOK {
		out = append(out, "at least 8 characters")
	}
	if !p.HasUpper {
		out = append(out, "contains uppercase letter")
	}
	if !p.HasLower {
		out = append(out, "contains lowercase letter")
	}
	if !p.HasDigit {
		out = append(out, "contains number")
	}
	return out
}

// IsPasswordStrong evaluates pw against the signup requirements. Letter and
// digit classes are ASCII only, matching [A-Z], [a-z] and \d. Length is
// measured in UTF-16 code units, the same unit ClampMetaDescription uses.
func IsPasswordStrong(pw string) PasswordStrength {
	var s PasswordStrength
	n := 0
	for _, r := range pw {
		n += codeUnits(r)
		switch {
		case r >= 'A' && r <= 'Z':
			s.HasUpper = true
		case r >= 'a' && r <= 'z':
			s.HasLower = true
		case r >= '0' && r <= '9':
			s.HasDigit = true
		}
	}
	s.LengthOK = n >= MinPasswordLength
	return s
}

// PasswordsMatch is true only when both values are non-empty and identical.
func PasswordsMatch(a, b string) bool {
	return a != "" && a == b
}
