package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
	"kakeibo/internal/services"
	"kakeibo/internal/storage/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	svc := services.NewLedgerService(store, nil)
	agg := ledger.NewAggregator(store, ledger.NewResolver(store))
	srv := NewServer(":0", svc, agg, store, time.Minute)
	t.Cleanup(func() {
		if err := srv.Shutdown(context.Background()); err != nil {
			t.Errorf("shutdown: %v", err)
		}
	})
	return srv, store
}

func seedUser(store *memory.Store, id int64, name, token string) core.User {
	u := core.User{ID: id, Username: name, Token: token}
	store.AddUser(u)
	return u
}

func doGet(srv *Server, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "session", Value: token})
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func doPost(srv *Server, path, token string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "session", Value: token})
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_IndexRedirectsToMonth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doGet(srv, "/", "")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/month" {
		t.Errorf("Location = %q, want /month", loc)
	}
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doGet(srv, path, "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want %d", path, rec.Code, http.StatusOK)
		}
	}
}

func TestServer_MonthAnonymous(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doGet(srv, "/month?year=2024&month=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "February 2024") {
		t.Errorf("body missing month heading:\n%s", body)
	}
}

func TestServer_MonthShowsEntryTotals(t *testing.T) {
	srv, store := newTestServer(t)
	u := seedUser(store, 1, "rei", "tok-rei")

	form := url.Values{"title": {"Groceries"}, "amount": {"4200"}, "kind": {"expense"}}
	if rec := doPost(srv, "/day/2024-02-10", u.Token, form); rec.Code != http.StatusSeeOther {
		t.Fatalf("create status = %d, want %d: %s", rec.Code, http.StatusSeeOther, rec.Body.String())
	}

	rec := doGet(srv, "/month?year=2024&month=2", u.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("month status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "-4,200") {
		t.Errorf("month view missing day total -4,200")
	}
}

func TestServer_CreateEntry_RequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	form := url.Values{"title": {"Coffee"}, "amount": {"350"}, "kind": {"expense"}}
	rec := doPost(srv, "/day/2024-03-10", "", form)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestServer_CreateEntry_InvalidAmount(t *testing.T) {
	srv, store := newTestServer(t)
	u := seedUser(store, 1, "rei", "tok-rei")

	form := url.Values{"title": {"Coffee"}, "amount": {"-5"}, "kind": {"expense"}}
	rec := doPost(srv, "/day/2024-03-10", u.Token, form)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}

func TestServer_CreateEntry_BadDate(t *testing.T) {
	srv, store := newTestServer(t)
	u := seedUser(store, 1, "rei", "tok-rei")

	form := url.Values{"title": {"Coffee"}, "amount": {"350"}, "kind": {"expense"}}
	rec := doPost(srv, "/day/not-a-date", u.Token, form)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestServer_DayView(t *testing.T) {
	srv, store := newTestServer(t)
	u := seedUser(store, 1, "rei", "tok-rei")

	form := url.Values{"title": {"Paycheck"}, "amount": {"250000"}, "kind": {"income"}}
	if rec := doPost(srv, "/day/2024-03-01", u.Token, form); rec.Code != http.StatusSeeOther {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}

	rec := doGet(srv, "/day/2024-03-01", u.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Paycheck") {
		t.Errorf("day view missing entry title")
	}
	if !strings.Contains(body, "250,000") {
		t.Errorf("day view missing formatted amount")
	}
}

func TestServer_DayView_AnonymousIsEmpty(t *testing.T) {
	srv, store := newTestServer(t)
	u := seedUser(store, 1, "rei", "tok-rei")

	form := url.Values{"title": {"Secret"}, "amount": {"100"}, "kind": {"expense"}}
	if rec := doPost(srv, "/day/2024-03-01", u.Token, form); rec.Code != http.StatusSeeOther {
		t.Fatalf("create status = %d", rec.Code)
	}

	rec := doGet(srv, "/day/2024-03-01", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if strings.Contains(rec.Body.String(), "Secret") {
		t.Errorf("anonymous day view leaked another user's entry")
	}
}

func TestServer_DeleteEntry(t *testing.T) {
	srv, store := newTestServer(t)
	u := seedUser(store, 1, "rei", "tok-rei")

	entry, err := store.CreateEntry(context.Background(), core.LedgerEntry{
		OwnerID: u.ID,
		Date:    core.NewDate(2024, 3, 5),
		Amount:  core.Money{Cents: 900},
		Kind:    core.Expense,
		Title:   "Lunch",
	})
	if err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	rec := doPost(srv, "/entries/"+itoa(entry.ID)+"/delete", u.Token, url.Values{})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	day := doGet(srv, "/day/2024-03-05", u.Token)
	if strings.Contains(day.Body.String(), "Lunch") {
		t.Errorf("entry still visible after delete")
	}
}

func TestServer_DeleteEntry_CrossOwnerIsNoOp(t *testing.T) {
	srv, store := newTestServer(t)
	owner := seedUser(store, 1, "rei", "tok-rei")
	other := seedUser(store, 2, "kai", "tok-kai")

	entry, err := store.CreateEntry(context.Background(), core.LedgerEntry{
		OwnerID: owner.ID,
		Date:    core.NewDate(2024, 3, 5),
		Amount:  core.Money{Cents: 900},
		Kind:    core.Expense,
		Title:   "Lunch",
	})
	if err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	// The delete is owner-scoped, so another user's attempt is a no-op
	// and gets the same redirect as a successful one.
	rec := doPost(srv, "/entries/"+itoa(entry.ID)+"/delete", other.Token, url.Values{})
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	day := doGet(srv, "/day/2024-03-05", owner.Token)
	if !strings.Contains(day.Body.String(), "Lunch") {
		t.Errorf("entry disappeared after cross-owner delete attempt")
	}
}

func TestServer_DeleteEntry_UnknownIDIsNoOp(t *testing.T) {
	srv, store := newTestServer(t)
	u := seedUser(store, 1, "rei", "tok-rei")

	rec := doPost(srv, "/entries/9999/delete", u.Token, url.Values{})
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
}

func TestServer_DeleteCharge_UnknownIDIsNoOp(t *testing.T) {
	srv, store := newTestServer(t)
	u := seedUser(store, 1, "rei", "tok-rei")

	rec := doPost(srv, "/recurring/9999/delete", u.Token, url.Values{})
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
}

func TestServer_RecurringLifecycle(t *testing.T) {
	srv, store := newTestServer(t)
	u := seedUser(store, 1, "rei", "tok-rei")

	form := url.Values{
		"title":        {"Rent"},
		"day_of_month": {"1"},
		"amount":       {"80000"},
		"start_date":   {"2024-01-01"},
	}
	if rec := doPost(srv, "/recurring", u.Token, form); rec.Code != http.StatusSeeOther {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}

	list := doGet(srv, "/recurring", u.Token)
	if list.Code != http.StatusOK {
		t.Fatalf("list status = %d", list.Code)
	}
	if !strings.Contains(list.Body.String(), "Rent") {
		t.Errorf("list missing created charge")
	}

	charges, err := store.ListCharges(context.Background(), u.ID)
	if err != nil || len(charges) != 1 {
		t.Fatalf("ListCharges = %v, %v; want one charge", charges, err)
	}

	del := doPost(srv, "/recurring/"+itoa(charges[0].ID)+"/delete", u.Token, url.Values{})
	if del.Code != http.StatusSeeOther {
		t.Fatalf("delete status = %d", del.Code)
	}

	after := doGet(srv, "/recurring", u.Token)
	if strings.Contains(after.Body.String(), "Rent") {
		t.Errorf("charge still listed after delete")
	}
}

func TestServer_Recurring_StartDateDefaultsToToday(t *testing.T) {
	srv, store := newTestServer(t)
	u := seedUser(store, 1, "rei", "tok-rei")

	form := url.Values{
		"title":        {"Gym"},
		"day_of_month": {"5"},
		"amount":       {"3000"},
	}
	if rec := doPost(srv, "/recurring", u.Token, form); rec.Code != http.StatusSeeOther {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}

	charges, err := store.ListCharges(context.Background(), u.ID)
	if err != nil || len(charges) != 1 {
		t.Fatalf("ListCharges = %v, %v; want one charge", charges, err)
	}
	if got := charges[0].StartDate; !got.Equal(core.Today()) {
		t.Errorf("StartDate = %s, want today (%s)", got, core.Today())
	}
}

func TestServer_Recurring_InvalidDay(t *testing.T) {
	srv, store := newTestServer(t)
	u := seedUser(store, 1, "rei", "tok-rei")

	form := url.Values{
		"title":        {"Rent"},
		"day_of_month": {"32"},
		"amount":       {"80000"},
		"start_date":   {"2024-01-01"},
	}
	rec := doPost(srv, "/recurring", u.Token, form)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}

func TestServer_Recurring_RequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	form := url.Values{
		"title":        {"Rent"},
		"day_of_month": {"1"},
		"amount":       {"80000"},
		"start_date":   {"2024-01-01"},
	}
	if rec := doPost(srv, "/recurring", "", form); rec.Code != http.StatusUnauthorized {
		t.Errorf("create status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if rec := doPost(srv, "/recurring/1/delete", "", url.Values{}); rec.Code != http.StatusUnauthorized {
		t.Errorf("delete status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestServer_WeekView(t *testing.T) {
	srv, store := newTestServer(t)
	u := seedUser(store, 1, "rei", "tok-rei")

	form := url.Values{"title": {"Cinema"}, "amount": {"1500"}, "kind": {"expense"}}
	if rec := doPost(srv, "/day/2024-03-12", u.Token, form); rec.Code != http.StatusSeeOther {
		t.Fatalf("create status = %d", rec.Code)
	}

	rec := doGet(srv, "/week?start=2024-03-10", u.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Cinema") {
		t.Errorf("week view missing entry")
	}
	if !strings.Contains(body, "2024-03-10") {
		t.Errorf("week view missing start date")
	}
}

func TestServer_WeekView_SnapsToSunday(t *testing.T) {
	srv, _ := newTestServer(t)

	// 2024-03-13 is a Wednesday; the view should open on Sunday the 10th.
	rec := doGet(srv, "/week?start=2024-03-13", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "2024-03-10") {
		t.Errorf("week did not snap to the preceding Sunday")
	}
}

func TestServer_WeekView_MalformedStart(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doGet(srv, "/week?start=not-a-date", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestServer_Month_InvalidParams(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{
		"/month?year=banana&month=2",
		"/month?year=2024&month=13",
		"/month?year=2024&month=abc",
	} {
		rec := doGet(srv, path, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want %d", path, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestServer_BearerTokenAuth(t *testing.T) {
	srv, store := newTestServer(t)
	u := seedUser(store, 1, "rei", "tok-rei")

	form := url.Values{"title": {"Taxi"}, "amount": {"2000"}, "kind": {"expense"}}
	req := httptest.NewRequest(http.MethodPost, "/day/2024-03-10", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+u.Token)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
}

func TestServer_UnknownTokenIsAnonymous(t *testing.T) {
	srv, _ := newTestServer(t)

	form := url.Values{"title": {"Taxi"}, "amount": {"2000"}, "kind": {"expense"}}
	rec := doPost(srv, "/day/2024-03-10", "bogus-token", form)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
