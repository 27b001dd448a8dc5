package models

import (
	dErrors "govinda/pkg/domain-errors"
)

// MaritalStatus follows the Swiss civil-register states.
type MaritalStatus string

const (
	MaritalSingle               MaritalStatus = "SINGLE"
	MaritalMarried              MaritalStatus = "MARRIED"
	MaritalDivorced             MaritalStatus = "DIVORCED"
	MaritalWidowed              MaritalStatus = "WIDOWED"
	MaritalRegisteredPartner    MaritalStatus = "REGISTERED_PARTNERSHIP"
	MaritalDissolvedPartnership MaritalStatus = "DISSOLVED_PARTNERSHIP"
)

func (m MaritalStatus) Valid() bool {
	switch m {
	case MaritalSingle, MaritalMarried, MaritalDivorced, MaritalWidowed,
		MaritalRegisteredPartner, MaritalDissolvedPartnership:
		return true
	}
	return false
}

func ParseMaritalStatus(s string) (MaritalStatus, error) {
	m := MaritalStatus(s)
	if !m.Valid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown marital status: %s", s)
	}
	return m, nil
}

// Gender enumeration.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

func ParseGender(s string) (Gender, error) {
	g := Gender(s)
	if !g.Valid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown gender: %s", s)
	}
	return g, nil
}

// Language covers the Swiss national languages plus English.
type Language string

const (
	LanguageDE Language = "DE"
	LanguageFR Language = "FR"
	LanguageIT Language = "IT"
	LanguageEN Language = "EN"
)

func (l Language) Valid() bool {
	switch l {
	case LanguageDE, LanguageFR, LanguageIT, LanguageEN:
		return true
	}
	return false
}

func ParseLanguage(s string) (Language, error) {
	l := Language(s)
	if !l.Valid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown language: %s", s)
	}
	return l, nil
}

// PersonStatus tracks whether an insured person record is live.
type PersonStatus string

const (
	PersonActive   PersonStatus = "ACTIVE"
	PersonInactive PersonStatus = "INACTIVE"
	PersonDeceased PersonStatus = "DECEASED"
)

func (s PersonStatus) Valid() bool {
	switch s {
	case PersonActive, PersonInactive, PersonDeceased:
		return true
	}
	return false
}

// AddressType distinguishes the residential main address from a separate
// correspondence address.
type AddressType string

const (
	AddressMain           AddressType = "MAIN"
	AddressCorrespondence AddressType = "CORRESPONDENCE"
)

func (t AddressType) Valid() bool {
	return t == AddressMain || t == AddressCorrespondence
}

func ParseAddressType(s string) (AddressType, error) {
	t := AddressType(s)
	if !t.Valid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown address type: %s", s)
	}
	return t, nil
}

// HouseholdRole is a person's role within a household.
type HouseholdRole string

const (
	RolePrimary HouseholdRole = "PRIMARY"
	RolePartner HouseholdRole = "PARTNER"
	RoleChild   HouseholdRole = "CHILD"
)

func (r HouseholdRole) Valid() bool {
	return r == RolePrimary || r == RolePartner || r == RoleChild
}

func ParseHouseholdRole(s string) (HouseholdRole, error) {
	r := HouseholdRole(s)
	if !r.Valid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown household role: %s", s)
	}
	return r, nil
}

// AgeGroup buckets insured persons into the three Swiss premium categories.
type AgeGroup string

const (
	AgeGroupChild      AgeGroup = "CHILD"       // 0-18
	AgeGroupYoungAdult AgeGroup = "YOUNG_ADULT" // 19-25
	AgeGroupAdult      AgeGroup = "ADULT"       // 26+
)

// AgeGroupForAge maps an age in years onto its premium category.
func AgeGroupForAge(age int) AgeGroup {
	switch {
	case age <= 18:
		return AgeGroupChild
	case age <= 25:
		return AgeGroupYoungAdult
	default:
		return AgeGroupAdult
	}
}

var cantons = map[string]struct{}{
	"ZH": {}, "BE": {}, "LU": {}, "UR": {}, "SZ": {}, "OW": {}, "NW": {},
	"GL": {}, "ZG": {}, "FR": {}, "SO": {}, "BS": {}, "BL": {}, "SH": {},
	"AR": {}, "AI": {}, "SG": {}, "GR": {}, "AG": {}, "TG": {}, "TI": {},
	"VD": {}, "VS": {}, "NE": {}, "GE": {}, "JU": {},
}

// ValidCanton reports whether code names one of the 26 Swiss cantons.
func ValidCanton(code string) bool {
	_, ok := cantons[code]
	return ok
}
