package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"govinda/internal/masterdata/service"
	"govinda/internal/masterdata/store/address"
	"govinda/internal/masterdata/store/household"
	"govinda/internal/masterdata/store/person"
	id "govinda/pkg/domain"
	"govinda/pkg/requestcontext"
)

var handlerNow = time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	persons := person.NewInMemory()
	addresses := address.NewInMemory()
	households := household.NewInMemory()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	personSvc := service.NewPersonService(persons, service.WithLogger(logger))
	addressSvc := service.NewAddressService(persons, addresses, service.WithLogger(logger))
	householdSvc := service.NewHouseholdService(households, persons, service.WithLogger(logger))

	h := New(personSvc, addressSvc, householdSvc, logger)
	r := chi.NewRouter()
	r.Use(seedContext)
	h.Register(r)
	return r
}

// seedContext stands in for the auth and request time middleware so handler
// tests run against a fixed tenant, actor and clock.
func seedContext(next http.Handler) http.Handler {
	tenantID := id.TenantID(uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"))
	userID := id.UserID(uuid.MustParse("6ba7b811-9dad-11d1-80b4-00c04fd430c8"))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = requestcontext.WithTenantID(ctx, tenantID)
		ctx = requestcontext.WithUserID(ctx, userID)
		ctx = requestcontext.WithTime(ctx, handlerNow)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func doJSON(t *testing.T, router http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func createPerson(t *testing.T, router http.Handler, ahv, lastName string) personResponse {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/persons", map[string]string{
		"ahv_nr":         ahv,
		"last_name":      lastName,
		"first_name":     "Anna",
		"date_of_birth":  "1985-04-12",
		"gender":         "FEMALE",
		"marital_status": "SINGLE",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating person, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp personResponse
	decodeBody(t, rec, &resp)
	return resp
}

func TestCreateAndGetPerson(t *testing.T) {
	router := newRouter(t)

	created := createPerson(t, router, "756.1234.5678.97", "Müller")
	if created.ID == "" {
		t.Fatalf("expected id in response, got %+v", created)
	}
	if created.Status != "ACTIVE" {
		t.Fatalf("expected ACTIVE status, got %s", created.Status)
	}

	rec := doJSON(t, router, http.MethodGet, "/persons/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching person, got %d", rec.Code)
	}
	var fetched personResponse
	decodeBody(t, rec, &fetched)
	if fetched.LastName != "Müller" {
		t.Fatalf("expected Müller, got %s", fetched.LastName)
	}

	rec = doJSON(t, router, http.MethodGet, "/persons/by-ahv/756.1234.5678.97", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching by AHV, got %d", rec.Code)
	}
}

func TestCreatePersonValidation(t *testing.T) {
	router := newRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/persons", map[string]string{
		"ahv_nr":         "not-an-ahv",
		"last_name":      "Müller",
		"first_name":     "Anna",
		"date_of_birth":  "1985-04-12",
		"gender":         "FEMALE",
		"marital_status": "SINGLE",
	})
	if rec.Code != http.StatusUnprocessableEntity && rec.Code != http.StatusBadRequest {
		t.Fatalf("expected validation failure for bad AHV, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/persons", map[string]string{
		"ahv_nr": "756.1234.5678.97", "unknown_field": "x",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}

func TestGetPersonNotFound(t *testing.T) {
	router := newRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/persons/"+uuid.NewString(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown person, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/persons/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", rec.Code)
	}
}

func TestChangeNameAndHistory(t *testing.T) {
	router := newRouter(t)
	created := createPerson(t, router, "756.1234.5678.97", "Müller")

	rec := doJSON(t, router, http.MethodPost, "/persons/"+created.ID+"/name", map[string]string{
		"last_name":      "Meier",
		"first_name":     "Anna",
		"reason":         "marriage",
		"effective_date": "2024-10-01",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 changing name, got %d: %s", rec.Code, rec.Body.String())
	}
	var mutation mutationResponse
	decodeBody(t, rec, &mutation)
	if mutation.Person.LastName != "Meier" {
		t.Fatalf("expected Meier after change, got %+v", mutation.Person)
	}
	if mutation.Person.Version != created.Version+1 {
		t.Fatalf("expected version bump, got %d", mutation.Person.Version)
	}
	// The history entry carries the pre-image.
	if mutation.History.LastName != "Müller" {
		t.Fatalf("expected pre-image Müller in history, got %s", mutation.History.LastName)
	}
	if mutation.History.MutationType != "UPDATE" {
		t.Fatalf("expected UPDATE mutation type, got %s", mutation.History.MutationType)
	}

	rec = doJSON(t, router, http.MethodGet, "/persons/"+created.ID+"/history", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching history, got %d", rec.Code)
	}
	var entries []historyEntryResponse
	decodeBody(t, rec, &entries)
	if len(entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(entries))
	}
}

func TestChangeNameRequiresReason(t *testing.T) {
	router := newRouter(t)
	created := createPerson(t, router, "756.1234.5678.97", "Müller")

	rec := doJSON(t, router, http.MethodPost, "/persons/"+created.ID+"/name", map[string]string{
		"last_name":      "Meier",
		"first_name":     "Anna",
		"effective_date": "2024-10-01",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without reason, got %d", rec.Code)
	}
}

func TestStateAtEndpoint(t *testing.T) {
	router := newRouter(t)
	created := createPerson(t, router, "756.1234.5678.97", "Müller")

	rec := doJSON(t, router, http.MethodPost, "/persons/"+created.ID+"/name", map[string]string{
		"last_name":      "Meier",
		"first_name":     "Anna",
		"reason":         "marriage",
		"effective_date": "2024-10-01",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 changing name, got %d", rec.Code)
	}

	// Inside the closed window the pre-image answers.
	rec = doJSON(t, router, http.MethodGet, "/persons/"+created.ID+"/state?date=2024-09-15", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for covered date, got %d", rec.Code)
	}
	var entry historyEntryResponse
	decodeBody(t, rec, &entry)
	if entry.LastName != "Müller" {
		t.Fatalf("expected snapshot Müller, got %s", entry.LastName)
	}

	// After the change took effect the live record applies.
	rec = doJSON(t, router, http.MethodGet, "/persons/"+created.ID+"/state?date=2024-10-15", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for live period, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/persons/"+created.ID+"/state", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without date, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/persons/"+uuid.NewString()+"/state?date=2024-09-15", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown person, got %d", rec.Code)
	}
}

func TestCorrectHistoryEndpoint(t *testing.T) {
	router := newRouter(t)
	created := createPerson(t, router, "756.1234.5678.97", "Müller")

	rec := doJSON(t, router, http.MethodPost, "/persons/"+created.ID+"/name", map[string]string{
		"last_name":      "Meier",
		"first_name":     "Anna",
		"reason":         "marriage",
		"effective_date": "2024-10-01",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 changing name, got %d", rec.Code)
	}
	var mutation mutationResponse
	decodeBody(t, rec, &mutation)

	correctionPath := "/persons/" + created.ID + "/history/" + mutation.History.HistoryID + "/corrections"
	rec = doJSON(t, router, http.MethodPost, correctionPath, map[string]string{
		"last_name": "Mueller",
		"reason":    "typo in migrated record",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for correction, got %d: %s", rec.Code, rec.Body.String())
	}
	var correction historyEntryResponse
	decodeBody(t, rec, &correction)
	if correction.LastName != "Mueller" || correction.MutationType != "CORRECTION" {
		t.Fatalf("unexpected correction entry: %+v", correction)
	}

	// The temporal query now answers with the corrected snapshot.
	rec = doJSON(t, router, http.MethodGet, "/persons/"+created.ID+"/state?date=2024-09-15", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for covered date, got %d", rec.Code)
	}
	var entry historyEntryResponse
	decodeBody(t, rec, &entry)
	if entry.LastName != "Mueller" {
		t.Fatalf("expected corrected snapshot Mueller, got %s", entry.LastName)
	}

	// Correcting the same entry twice conflicts.
	rec = doJSON(t, router, http.MethodPost, correctionPath, map[string]string{
		"last_name": "Mueller-Meier",
		"reason":    "second thoughts",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for double correction, got %d", rec.Code)
	}
}

func TestSearchPersons(t *testing.T) {
	router := newRouter(t)
	createPerson(t, router, "756.1234.5678.97", "Müller")
	createPerson(t, router, "756.9876.5432.17", "Meier")

	rec := doJSON(t, router, http.MethodGet, "/persons/?name=mei", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 searching, got %d", rec.Code)
	}
	var results []personResponse
	decodeBody(t, rec, &results)
	if len(results) != 1 || results[0].LastName != "Meier" {
		t.Fatalf("expected exactly Meier, got %+v", results)
	}

	rec = doJSON(t, router, http.MethodGet, "/persons/?limit=nope", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}
}

func TestAddressLifecycle(t *testing.T) {
	router := newRouter(t)
	created := createPerson(t, router, "756.1234.5678.97", "Müller")
	base := "/persons/" + created.ID + "/addresses"

	rec := doJSON(t, router, http.MethodPost, base, map[string]string{
		"address_type": "MAIN",
		"street":       "Bahnhofstrasse",
		"house_number": "10",
		"postal_code":  "8001",
		"city":         "Zürich",
		"canton":       "ZH",
		"valid_from":   "2024-01-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 registering address, got %d: %s", rec.Code, rec.Body.String())
	}

	// A second MAIN address must go through a move.
	rec = doJSON(t, router, http.MethodPost, base, map[string]string{
		"address_type": "MAIN",
		"street":       "Seestrasse",
		"postal_code":  "8002",
		"city":         "Zürich",
		"canton":       "ZH",
		"valid_from":   "2024-06-01",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for second MAIN address, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, base+"/move", map[string]string{
		"address_type": "MAIN",
		"street":       "Seestrasse",
		"house_number": "5",
		"postal_code":  "8002",
		"city":         "Zürich",
		"canton":       "ZH",
		"valid_from":   "2024-06-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 moving address, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, base, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing addresses, got %d", rec.Code)
	}
	var list []addressResponse
	decodeBody(t, rec, &list)
	if len(list) != 2 {
		t.Fatalf("expected 2 addresses after move, got %d", len(list))
	}

	rec = doJSON(t, router, http.MethodGet, base+"/current?type=MAIN", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching current address, got %d", rec.Code)
	}
	var current addressResponse
	decodeBody(t, rec, &current)
	if current.Street != "Seestrasse" {
		t.Fatalf("expected current address Seestrasse, got %s", current.Street)
	}
}

func TestHouseholdLifecycle(t *testing.T) {
	router := newRouter(t)
	primary := createPerson(t, router, "756.1234.5678.97", "Müller")

	rec := doJSON(t, router, http.MethodPost, "/households", map[string]string{"name": "Familie Müller"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating household, got %d: %s", rec.Code, rec.Body.String())
	}
	var hh householdResponse
	decodeBody(t, rec, &hh)

	rec = doJSON(t, router, http.MethodPost, "/households/"+hh.ID+"/members", map[string]string{
		"person_id":  primary.ID,
		"role":       "PRIMARY",
		"valid_from": "2024-01-01",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 adding member, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/persons/"+primary.ID+"/household", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching household of person, got %d", rec.Code)
	}
	var found householdResponse
	decodeBody(t, rec, &found)
	if found.ID != hh.ID || len(found.Members) != 1 {
		t.Fatalf("unexpected household lookup result: %+v", found)
	}

	rec = doJSON(t, router, http.MethodDelete, "/households/"+hh.ID+"/members/"+primary.ID+"?valid_to=2024-08-01", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 removing member, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/persons/"+primary.ID+"/household", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after membership closed, got %d", rec.Code)
	}
}
