package models

import (
	"regexp"
	"strings"

	dErrors "govinda/pkg/domain-errors"
)

// AhvNumber is the Swiss social-security number in its formatted
// representation (756.XXXX.XXXX.XX). Identity of an insured person within a
// tenant; unique per tenant.
type AhvNumber string

var ahvFormat = regexp.MustCompile(`^756\.\d{4}\.\d{4}\.\d{2}$`)

// ParseAhvNumber validates the dotted format.
func ParseAhvNumber(s string) (AhvNumber, error) {
	if !ahvFormat.MatchString(s) {
		return "", dErrors.Newf(dErrors.CodeInvalidInput,
			"invalid AHV number format: %s (expected 756.XXXX.XXXX.XX)", s)
	}
	return AhvNumber(s), nil
}

// AhvNumberFromDigits builds an AhvNumber from 13 unformatted digits.
func AhvNumberFromDigits(digits string) (AhvNumber, error) {
	if len(digits) != 13 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unformatted AHV number must be 13 digits")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", dErrors.New(dErrors.CodeInvalidInput, "unformatted AHV number must be 13 digits")
		}
	}
	formatted := digits[0:3] + "." + digits[3:7] + "." + digits[7:11] + "." + digits[11:13]
	return ParseAhvNumber(formatted)
}

func (a AhvNumber) String() string { return string(a) }

// Unformatted strips the dots.
func (a AhvNumber) Unformatted() string { return strings.ReplaceAll(string(a), ".", "") }
