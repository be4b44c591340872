package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	mobilePattern = regexp.MustCompile(`^(?:\+91|91|0)?[6-9]\d{9}$`)
	pinPattern    = regexp.MustCompile(`^[1-9]\d{5}$`)
	phoneNoise    = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

// ValidationError maps field names to what is wrong with them.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s: %s", name, e.Fields[name])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// NormalizePhone strips separators so "+91 98765-43210" and "+919876543210"
// compare equal.
func NormalizePhone(phone string) string {
	return phoneNoise.Replace(strings.TrimSpace(phone))
}

// ValidateContact checks the mandatory customer and address fields. It
// returns nil or a *ValidationError listing every failing field.
func ValidateContact(c Customer, a Address) error {
	fields := map[string]string{}

	if strings.TrimSpace(c.Name) == "" {
		fields["name"] = "is required"
	}
	switch email := strings.TrimSpace(c.Email); {
	case email == "":
		fields["email"] = "is required"
	case !emailPattern.MatchString(email):
		fields["email"] = "is not a valid email address"
	}
	switch phone := NormalizePhone(c.Phone); {
	case phone == "":
		fields["phone"] = "is required"
	case !mobilePattern.MatchString(phone):
		fields["phone"] = "must be a 10-digit mobile number"
	}
	if strings.TrimSpace(a.Line1) == "" {
		fields["line1"] = "is required"
	}
	if strings.TrimSpace(a.City) == "" {
		fields["city"] = "is required"
	}
	if strings.TrimSpace(a.State) == "" {
		fields["state"] = "is required"
	}
	switch zip := strings.TrimSpace(a.Zip); {
	case zip == "":
		fields["zip"] = "is required"
	case !pinPattern.MatchString(zip):
		fields["zip"] = "must be a 6-digit PIN code"
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
