package handler

import (
	"time"

	"govinda/internal/masterdata/models"
	"govinda/internal/masterdata/service"
	dErrors "govinda/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

func parseDate(s, field string) (time.Time, error) {
	if s == "" {
		return time.Time{}, dErrors.Newf(dErrors.CodeBadRequest, "%s is required", field)
	}
	d, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, dErrors.Newf(dErrors.CodeBadRequest, "%s must be a date in YYYY-MM-DD format", field)
	}
	return d, nil
}

type createPersonRequest struct {
	AhvNr             string `json:"ahv_nr"`
	LastName          string `json:"last_name"`
	FirstName         string `json:"first_name"`
	DateOfBirth       string `json:"date_of_birth"`
	Gender            string `json:"gender"`
	MaritalStatus     string `json:"marital_status"`
	Nationality       string `json:"nationality,omitempty"`
	PreferredLanguage string `json:"preferred_language,omitempty"`
}

func (r createPersonRequest) toParams() (service.CreatePersonParams, error) {
	dob, err := parseDate(r.DateOfBirth, "date_of_birth")
	if err != nil {
		return service.CreatePersonParams{}, err
	}
	return service.CreatePersonParams{
		AhvNr:             r.AhvNr,
		LastName:          r.LastName,
		FirstName:         r.FirstName,
		DateOfBirth:       dob,
		Gender:            models.Gender(r.Gender),
		MaritalStatus:     models.MaritalStatus(r.MaritalStatus),
		Nationality:       r.Nationality,
		PreferredLanguage: models.Language(r.PreferredLanguage),
	}, nil
}

type updatePersonRequest struct {
	Nationality       *string `json:"nationality,omitempty"`
	PreferredLanguage *string `json:"preferred_language,omitempty"`
}

type changeNameRequest struct {
	LastName      string `json:"last_name"`
	FirstName     string `json:"first_name"`
	Reason        string `json:"reason"`
	EffectiveDate string `json:"effective_date"`
}

func (r changeNameRequest) toChange() (models.NameChange, error) {
	if r.Reason == "" {
		return models.NameChange{}, dErrors.New(dErrors.CodeBadRequest, "reason is required")
	}
	effective, err := parseDate(r.EffectiveDate, "effective_date")
	if err != nil {
		return models.NameChange{}, err
	}
	return models.NameChange{
		LastName:      r.LastName,
		FirstName:     r.FirstName,
		Reason:        r.Reason,
		EffectiveDate: effective,
	}, nil
}

type changeMaritalStatusRequest struct {
	MaritalStatus string `json:"marital_status"`
	Reason        string `json:"reason"`
	EffectiveDate string `json:"effective_date"`
}

func (r changeMaritalStatusRequest) toChange() (models.MaritalStatusChange, error) {
	if r.Reason == "" {
		return models.MaritalStatusChange{}, dErrors.New(dErrors.CodeBadRequest, "reason is required")
	}
	effective, err := parseDate(r.EffectiveDate, "effective_date")
	if err != nil {
		return models.MaritalStatusChange{}, err
	}
	return models.MaritalStatusChange{
		Status:        models.MaritalStatus(r.MaritalStatus),
		Reason:        r.Reason,
		EffectiveDate: effective,
	}, nil
}

type correctHistoryRequest struct {
	LastName      string `json:"last_name,omitempty"`
	FirstName     string `json:"first_name,omitempty"`
	MaritalStatus string `json:"marital_status,omitempty"`
	Reason        string `json:"reason"`
}

func (r correctHistoryRequest) toCorrection() (models.HistoryCorrection, error) {
	if r.Reason == "" {
		return models.HistoryCorrection{}, dErrors.New(dErrors.CodeBadRequest, "reason is required")
	}
	return models.HistoryCorrection{
		LastName:      r.LastName,
		FirstName:     r.FirstName,
		MaritalStatus: models.MaritalStatus(r.MaritalStatus),
		Reason:        r.Reason,
	}, nil
}

type addressRequest struct {
	AddressType    string `json:"address_type"`
	Street         string `json:"street"`
	HouseNumber    string `json:"house_number,omitempty"`
	AdditionalLine string `json:"additional_line,omitempty"`
	PostalCode     string `json:"postal_code"`
	City           string `json:"city"`
	Canton         string `json:"canton"`
	Country        string `json:"country,omitempty"`
	ValidFrom      string `json:"valid_from"`
}

func (r addressRequest) toParams() (service.RegisterAddressParams, error) {
	validFrom, err := parseDate(r.ValidFrom, "valid_from")
	if err != nil {
		return service.RegisterAddressParams{}, err
	}
	return service.RegisterAddressParams{
		AddressType:    models.AddressType(r.AddressType),
		Street:         r.Street,
		HouseNumber:    r.HouseNumber,
		AdditionalLine: r.AdditionalLine,
		PostalCode:     r.PostalCode,
		City:           r.City,
		Canton:         r.Canton,
		Country:        r.Country,
		ValidFrom:      validFrom,
	}, nil
}

type createHouseholdRequest struct {
	Name string `json:"name"`
}

type addMemberRequest struct {
	PersonID  string `json:"person_id"`
	Role      string `json:"role"`
	ValidFrom string `json:"valid_from"`
}
