package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"
)

// fixedNow is 2024-04-01 01:00 in UTC+9 while still March 31 in UTC
var fixedNow = time.Date(2024, 3, 31, 16, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *GormStore) {
	t.Helper()

	store := newTestStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := NewServer(store, logger, Options{Now: func() time.Time { return fixedNow }})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv, store
}

func doRequest(t *testing.T, srv *Server, req *http.Request) (*http.Response, string) {
	t.Helper()

	resp, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Reading body: %v", err)
	}
	resp.Body.Close()
	return resp, string(body)
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestHomeRedirectsToCivilMonth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doRequest(t, srv, httptest.NewRequest(http.MethodGet, "/", nil))

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("Expected status 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/2024/04" {
		t.Errorf("Expected redirect to /2024/04 (UTC+9), got %s", loc)
	}
}

func TestMonthPage(t *testing.T) {
	srv, store := newTestServer(t)
	if _, err := store.Create(context.Background(), EventInput{Date: date(2024, 4, 1), PersonID: 3, Content: "Kickoff"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	resp, body := doRequest(t, srv, httptest.NewRequest(http.MethodGet, "/2024/04", nil))

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Expected text/html, got %s", ct)
	}

	for _, want := range []string{
		"<title>カレンダー</title>",
		"[3] Kickoff",
		`href="/2024/3"`, // previous month
		`href="/2024/5"`, // next month
		`href="/add_event/2024/4/1"`,
		`href="/add_event/2024/3/31"`, // leading day from March
		`class=" today"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Month page missing %q", want)
		}
	}
	if n := strings.Count(body, "<td "); n != GridCells {
		t.Errorf("Expected %d cells, got %d", GridCells, n)
	}
}

func TestMonthPageBadInput(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		path string
		want int
	}{
		{"/2024/13", http.StatusBadRequest},
		{"/2024/0", http.StatusBadRequest},
		{"/abcd/3", http.StatusBadRequest},
		{"/add_event/2024/2/30", http.StatusBadRequest},
		{"/update_event/abc", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, _ := doRequest(t, srv, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if resp.StatusCode != tt.want {
				t.Errorf("GET %s: expected %d, got %d", tt.path, tt.want, resp.StatusCode)
			}
		})
	}
}

func TestAddEventForm(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doRequest(t, srv, httptest.NewRequest(http.MethodGet, "/add_event/2024/3/5", nil))

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, `value="2024-03-05"`) {
		t.Error("Add form should be pre-filled with the path date")
	}
	if !strings.Contains(body, `action="/add_event/2024/3/5"`) {
		t.Error("Add form should post back to its own path")
	}
}

func TestAddEventRedirectsAndShowsInGrid(t *testing.T) {
	srv, store := newTestServer(t)

	form := url.Values{"date": {"2024-03-05"}, "person_id": {"7"}, "content": {"Dentist"}}
	resp, _ := doRequest(t, srv, postForm("/add_event/2024/3/5", form))

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("Expected status 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/2024/3" {
		t.Errorf("Expected redirect to /2024/3, got %s", loc)
	}

	events, err := store.ByDate(context.Background(), date(2024, 3, 5))
	if err != nil {
		t.Fatalf("ByDate: %v", err)
	}
	if len(events) != 1 || events[0].PersonID != 7 || events[0].Content != "Dentist" {
		t.Fatalf("Unexpected stored events: %+v", events)
	}

	_, body := doRequest(t, srv, httptest.NewRequest(http.MethodGet, "/2024/3", nil))
	if !strings.Contains(body, "[7] Dentist") {
		t.Error("New event missing from month page")
	}
}

func TestAddEventUsesFormDate(t *testing.T) {
	srv, _ := newTestServer(t)

	// The form date wins over the date in the path.
	form := url.Values{"date": {"2024-06-10"}, "person_id": {"1"}, "content": {"Moved while typing"}}
	resp, _ := doRequest(t, srv, postForm("/add_event/2024/3/5", form))

	if loc := resp.Header.Get("Location"); loc != "/2024/6" {
		t.Errorf("Expected redirect to /2024/6, got %s", loc)
	}
}

func TestAddEventInvalidForm(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		form url.Values
	}{
		{"bad person id", url.Values{"date": {"2024-03-05"}, "person_id": {"seven"}, "content": {"x"}}},
		{"bad date", url.Values{"date": {"05.03.2024"}, "person_id": {"7"}, "content": {"x"}}},
		{"content too long", url.Values{"date": {"2024-03-05"}, "person_id": {"7"}, "content": {strings.Repeat("x", MaxContentLength+1)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := doRequest(t, srv, postForm("/add_event/2024/3/5", tt.form))
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestUpdateEvent(t *testing.T) {
	srv, store := newTestServer(t)
	created, err := store.Create(context.Background(), EventInput{Date: date(2024, 3, 5), PersonID: 7, Content: "Dentist"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	path := "/update_event/" + strconv.FormatUint(uint64(created.ID), 10)

	resp, body := doRequest(t, srv, httptest.NewRequest(http.MethodGet, path, nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	for _, want := range []string{`value="2024-03-05"`, `value="7"`, `value="Dentist"`, `href="/delete/` + strconv.FormatUint(uint64(created.ID), 10) + `"`} {
		if !strings.Contains(body, want) {
			t.Errorf("Update form missing %q", want)
		}
	}

	form := url.Values{"date": {"2024-04-02"}, "person_id": {"9"}, "content": {"Dentist again"}}
	resp, _ = doRequest(t, srv, postForm(path, form))
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("Expected status 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/2024/4" {
		t.Errorf("Expected redirect to /2024/4, got %s", loc)
	}

	_, march := doRequest(t, srv, httptest.NewRequest(http.MethodGet, "/2024/3", nil))
	if cell := cellHTML(t, march, "/add_event/2024/3/5"); strings.Contains(cell, "Dentist") {
		t.Errorf("Updated event should have left the 2024-03-05 cell:\n%s", cell)
	}
	if cell := cellHTML(t, march, "/add_event/2024/4/2"); !strings.Contains(cell, "[9] Dentist again") {
		t.Errorf("Trailing 2024-04-02 cell of the March grid should show the event:\n%s", cell)
	}
	_, april := doRequest(t, srv, httptest.NewRequest(http.MethodGet, "/2024/4", nil))
	if !strings.Contains(april, "[9] Dentist again") {
		t.Error("Updated event should appear in the April grid")
	}
}

func TestDeleteEvent(t *testing.T) {
	srv, store := newTestServer(t)
	created, err := store.Create(context.Background(), EventInput{Date: date(2024, 2, 29), PersonID: 1, Content: "Leap day"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	resp, _ := doRequest(t, srv, httptest.NewRequest(http.MethodGet, "/delete/"+strconv.FormatUint(uint64(created.ID), 10), nil))

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("Expected status 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/2024/2" {
		t.Errorf("Expected redirect to the event's month /2024/2, got %s", loc)
	}

	events, err := store.ByDate(context.Background(), date(2024, 2, 29))
	if err != nil {
		t.Fatalf("ByDate: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Deleted event still stored: %+v", events)
	}
}

func TestUnknownEventIsNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	requests := []*http.Request{
		httptest.NewRequest(http.MethodGet, "/update_event/999", nil),
		postForm("/update_event/999", url.Values{"date": {"2024-03-05"}, "person_id": {"1"}, "content": {"x"}}),
		httptest.NewRequest(http.MethodGet, "/delete/999", nil),
	}

	for _, req := range requests {
		resp, body := doRequest(t, srv, req)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s %s: expected 404, got %d", req.Method, req.URL.Path, resp.StatusCode)
		}
		if body != ErrMsgNotFound {
			t.Errorf("%s %s: expected body %q, got %q", req.Method, req.URL.Path, ErrMsgNotFound, body)
		}
	}
}

func TestExport(t *testing.T) {
	srv, store := newTestServer(t)
	ctx := context.Background()
	for _, in := range []EventInput{
		{Date: date(2024, 3, 5), PersonID: 7, Content: "Dentist, 10am"},
		{Date: date(2024, 2, 26), PersonID: 1, Content: "February"}, // visible in the grid, not in March
	} {
		if _, err := store.Create(ctx, in); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	tests := []struct {
		format      string
		contentType string
		want        []string
	}{
		{"ics", "text/calendar", []string{"BEGIN:VCALENDAR", "DTSTART;VALUE=DATE:20240305", `SUMMARY:Dentist\, 10am`}},
		{"csv", "text/csv", []string{"date,person_id,content", `2024-03-05,7,"Dentist, 10am"`}},
		{"json", "application/json", []string{`"month":"2024-03"`, `"date":"2024-03-05"`}},
		{"yaml", "application/yaml", []string{"month: 2024-03", "date: \"2024-03-05\""}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			resp, body := doRequest(t, srv, httptest.NewRequest(http.MethodGet, "/export/2024/3?format="+tt.format, nil))
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, tt.contentType) {
				t.Errorf("Expected Content-Type %s, got %s", tt.contentType, ct)
			}
			if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "events_2024_03."+tt.format) {
				t.Errorf("Unexpected Content-Disposition %q", cd)
			}
			for _, want := range tt.want {
				if !strings.Contains(body, want) {
					t.Errorf("%s export missing %q:\n%s", tt.format, want, body)
				}
			}
			if strings.Contains(body, "February") {
				t.Errorf("%s export should only contain March events", tt.format)
			}
		})
	}

	resp, _ := doRequest(t, srv, httptest.NewRequest(http.MethodGet, "/export/2024/3?format=pdf", nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Unknown format: expected 400, got %d", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doRequest(t, srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, `"status":"ok"`) {
		t.Errorf("Unexpected health body %s", body)
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doRequest(t, srv, httptest.NewRequest(http.MethodGet, "/2024/3", nil))

	if id := resp.Header.Get("X-Request-ID"); len(id) != 36 {
		t.Errorf("Expected a UUID request id, got %q", id)
	}
}

// cellHTML returns the markup of the grid cell whose day links to addPath
func cellHTML(t *testing.T, page, addPath string) string {
	t.Helper()

	start := strings.Index(page, `href="`+addPath+`"`)
	if start < 0 {
		t.Fatalf("No cell links to %s", addPath)
	}
	cell := page[start:]
	if end := strings.Index(cell, "</td>"); end >= 0 {
		cell = cell[:end]
	}
	return cell
}

func TestMonthPageOmitsLinksOutsideRange(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		path    string
		missing string
		present string
	}{
		{"/1/1", `href="/0/12"`, `href="/1/2"`},
		{"/1/1", `href="/add_event/0/12/31"`, `href="/add_event/1/1/1"`},
		{"/9999/12", `href="/10000/1"`, `href="/9999/11"`},
		{"/9999/12", `href="/add_event/10000/1/1"`, `href="/add_event/9999/12/31"`},
	}

	for _, tt := range tests {
		t.Run(tt.path+" "+tt.missing, func(t *testing.T) {
			resp, body := doRequest(t, srv, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", resp.StatusCode)
			}
			if strings.Contains(body, tt.missing) {
				t.Errorf("Page links to unsupported month %s", tt.missing)
			}
			if !strings.Contains(body, tt.present) {
				t.Errorf("Page missing link %s", tt.present)
			}
		})
	}
}
