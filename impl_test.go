package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"tritonthenix/api"
	"tritonthenix/clients/sendgrid"
	"tritonthenix/services/event"
	"tritonthenix/services/mail"
	"tritonthenix/services/profile"
	"tritonthenix/services/session"
	"tritonthenix/services/user"
	"tritonthenix/validator"
)

type fakeVerifier map[string]session.Identity

func (f fakeVerifier) Verify(_ context.Context, credential string) (session.Identity, error) {
	identity, ok := f[credential]
	if !ok {
		return session.Identity{}, validator.ErrInvalidCredential
	}
	return identity, nil
}

var testNow = time.Date(2024, 6, 10, 17, 0, 0, 0, time.UTC)

type harness struct {
	t      *testing.T
	router *gin.Engine
}

func newHarness(t *testing.T, allowTempAdmin bool) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	events := event.NewService(event.NewMemoryRepository())
	users := user.NewService(user.NewMemoryRepository())
	server := Server{
		EventService:   events,
		SessionService: session.NewService(session.NewMemoryStore(), []string{"coach@tritonthenix.com"}, time.Hour),
		UserService:    users,
		MailService:    mail.NewService(events, nil, sendgrid.Address{Email: mail.DefaultFromEmail, Name: mail.DefaultFromName}),
		ProfileService: profile.NewService(nil, users),
		Verifier: fakeVerifier{
			"coach-cred":  {Email: "Coach@TritonThenix.com", Name: "Coach"},
			"member-cred": {Email: "member@ucsd.edu", Name: "Member"},
		},
		AllowTempAdmin: allowTempAdmin,
		Now:            func() time.Time { return testNow },
	}
	r, err := newRouter(server, nil)
	if err != nil {
		t.Fatal(err)
	}
	return &harness{t: t, router: r}
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			h.t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) signIn(credential string) string {
	h.t.Helper()
	w := h.do(http.MethodPost, "/auth/credential", "", api.CredentialRequest{Credential: credential})
	if w.Code != http.StatusOK {
		h.t.Fatalf("sign in: status %d: %s", w.Code, w.Body.String())
	}
	var resp api.Session
	decode(h.t, w, &resp)
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) api.Code {
	t.Helper()
	var resp api.ErrorResponse
	decode(t, w, &resp)
	return resp.Error.Status
}

func workout(maxRSVPs int) api.EventDraft {
	return api.EventDraft{
		Name:        "Morning calisthenics",
		Type:        "workout",
		Date:        "2024-06-10",
		Time:        "06:00",
		Description: "Pull-ups",
		MaxRSVPs:    maxRSVPs,
	}
}

func TestPing(t *testing.T) {
	h := newHarness(t, false)
	w := h.do(http.MethodGet, "/ping", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var pong api.Pong
	decode(t, w, &pong)
	if pong.Message != "pong" {
		t.Errorf("message = %q", pong.Message)
	}
}

func TestSignInAndMe(t *testing.T) {
	h := newHarness(t, false)

	w := h.do(http.MethodPost, "/auth/credential", "", api.CredentialRequest{Credential: "forged"})
	if w.Code != http.StatusUnauthorized || errorCode(t, w) != api.CodeUnauthenticated {
		t.Fatalf("forged credential: status %d body %s", w.Code, w.Body.String())
	}

	token := h.signIn("coach-cred")
	w = h.do(http.MethodGet, "/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /me status = %d: %s", w.Code, w.Body.String())
	}
	var me api.Me
	decode(t, w, &me)
	if me.Email != "coach@tritonthenix.com" || !me.IsAdmin {
		t.Errorf("me = %+v", me)
	}

	if w := h.do(http.MethodGet, "/me", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("GET /me without token status = %d", w.Code)
	}

	if w := h.do(http.MethodPost, "/auth/signout", token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("signout status = %d: %s", w.Code, w.Body.String())
	}
	if w := h.do(http.MethodGet, "/me", token, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("GET /me after signout status = %d", w.Code)
	}
}

func TestTempAdmin(t *testing.T) {
	if w := newHarness(t, false).do(http.MethodPost, "/auth/temp-admin", "", nil); w.Code != http.StatusForbidden {
		t.Errorf("disabled temp admin status = %d", w.Code)
	}

	h := newHarness(t, true)
	w := h.do(http.MethodPost, "/auth/temp-admin", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("temp admin status = %d: %s", w.Code, w.Body.String())
	}
	var resp api.Session
	decode(t, w, &resp)
	if !resp.User.IsAdmin || !resp.User.TempAdmin || resp.User.Name != TestAdmin.Name {
		t.Errorf("user = %+v", resp.User)
	}
	if w := h.do(http.MethodPost, "/events", resp.Token, workout(0)); w.Code != http.StatusCreated {
		t.Errorf("temp admin create status = %d: %s", w.Code, w.Body.String())
	}
}

func TestEventLifecycle(t *testing.T) {
	h := newHarness(t, false)
	coach := h.signIn("coach-cred")
	member := h.signIn("member-cred")

	if w := h.do(http.MethodPost, "/events", "", workout(1)); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous create status = %d", w.Code)
	}
	if w := h.do(http.MethodPost, "/events", member, workout(1)); w.Code != http.StatusForbidden {
		t.Errorf("member create status = %d", w.Code)
	}

	w := h.do(http.MethodPost, "/events", coach, workout(1))
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	var created api.Created
	decode(t, w, &created)
	id := created.ID

	w = h.do(http.MethodGet, "/events/"+id, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var got api.Event
	decode(t, w, &got)
	if got.Type != "Workout" || got.CreatorEmail != "coach@tritonthenix.com" || got.SpotsLeft != 1 {
		t.Errorf("event = %+v", got)
	}

	w = h.do(http.MethodPost, "/events/"+id+"/rsvp", member, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("rsvp status = %d: %s", w.Code, w.Body.String())
	}
	var rsvp api.RSVPResult
	decode(t, w, &rsvp)
	if rsvp.Outcome != "joined" || rsvp.Event.SpotsLeft != 0 {
		t.Errorf("rsvp = %+v", rsvp)
	}

	w = h.do(http.MethodPost, "/events/"+id+"/rsvp", coach, nil)
	if w.Code != http.StatusConflict || errorCode(t, w) != api.CodeFailedPrecondition {
		t.Errorf("rsvp to full event: status %d body %s", w.Code, w.Body.String())
	}

	w = h.do(http.MethodGet, "/events/"+id+"/attendees", coach, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("attendees status = %d", w.Code)
	}
	var attendees []api.Attendee
	decode(t, w, &attendees)
	if len(attendees) != 1 || attendees[0].Email != "member@ucsd.edu" || attendees[0].Name != "Member" {
		t.Errorf("attendees = %+v", attendees)
	}

	w = h.do(http.MethodPatch, "/events/"+id, coach, api.EventPatch{MaxRSVPs: func() *int { n := 5; return &n }()})
	if w.Code != http.StatusNoContent {
		t.Fatalf("patch status = %d: %s", w.Code, w.Body.String())
	}

	w = h.do(http.MethodPost, "/events/"+id+"/duplicate", coach, api.DuplicateRequest{Date: "2024-06-17"})
	if w.Code != http.StatusCreated {
		t.Fatalf("duplicate status = %d: %s", w.Code, w.Body.String())
	}

	w = h.do(http.MethodGet, "/events", "", nil)
	var list []api.Event
	decode(t, w, &list)
	if len(list) != 2 || list[0].ID != id || list[0].MaxRSVPs != 5 || len(list[1].Attendees) != 0 {
		t.Errorf("list = %+v", list)
	}

	if w := h.do(http.MethodDelete, "/events/"+id, coach, nil); w.Code != http.StatusBadRequest {
		t.Errorf("delete without confirm status = %d", w.Code)
	}
	if w := h.do(http.MethodDelete, "/events/"+id+"?confirm=nope", coach, nil); w.Code != http.StatusPreconditionFailed {
		t.Errorf("delete with wrong confirm status = %d", w.Code)
	}
	if w := h.do(http.MethodDelete, "/events/"+id+"?confirm="+id, member, nil); w.Code != http.StatusForbidden {
		t.Errorf("member delete status = %d", w.Code)
	}
	if w := h.do(http.MethodDelete, "/events/"+id+"?confirm="+id, coach, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d: %s", w.Code, w.Body.String())
	}
	if w := h.do(http.MethodGet, "/events/"+id, "", nil); w.Code != http.StatusNotFound || errorCode(t, w) != api.CodeNotFound {
		t.Errorf("get deleted status = %d", w.Code)
	}
}

func TestCreateValidationErrors(t *testing.T) {
	h := newHarness(t, false)
	coach := h.signIn("coach-cred")

	draft := workout(0)
	draft.Name = " "
	draft.Time = "6am"
	w := h.do(http.MethodPost, "/events", coach, draft)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp api.ErrorResponse
	decode(t, w, &resp)
	if resp.Error.Status != api.CodeInvalidArgument || len(resp.Error.Fields) != 2 {
		t.Errorf("error = %+v", resp.Error)
	}
	w = h.do(http.MethodGet, "/events", "", nil)
	var list []api.Event
	decode(t, w, &list)
	if len(list) != 0 {
		t.Errorf("invalid draft stored %d events", len(list))
	}
}

func TestSchedule(t *testing.T) {
	h := newHarness(t, false)
	coach := h.signIn("coach-cred")
	for _, d := range []api.EventDraft{
		workout(0),
		{Name: "Meetup", Type: "Event", Date: "2024-07-01", Time: "10:00", Description: "Park"},
	} {
		if w := h.do(http.MethodPost, "/events", coach, d); w.Code != http.StatusCreated {
			t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
		}
	}

	w := h.do(http.MethodGet, "/schedule/workouts", "", nil)
	var workouts []api.Event
	decode(t, w, &workouts)
	if len(workouts) != 1 || workouts[0].Name != "Morning calisthenics" {
		t.Errorf("today's workouts = %+v", workouts)
	}
	w = h.do(http.MethodGet, "/schedule/workouts?date=2024-06-11", "", nil)
	decode(t, w, &workouts)
	if len(workouts) != 0 {
		t.Errorf("workouts on 2024-06-11 = %+v", workouts)
	}
	if w := h.do(http.MethodGet, "/schedule/workouts?date=tomorrow", "", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d", w.Code)
	}

	w = h.do(http.MethodGet, "/schedule/events", "", nil)
	var buckets api.Buckets
	decode(t, w, &buckets)
	if len(buckets.Today) != 0 || len(buckets.Upcoming) != 1 || len(buckets.Past) != 0 {
		t.Errorf("buckets = %+v", buckets)
	}

	w = h.do(http.MethodGet, "/schedule/days?count=3", "", nil)
	var days []api.Day
	decode(t, w, &days)
	if len(days) != 3 || days[0].Date != "2024-06-10" || days[0].Label != "Mon, Jun 10, 2024" {
		t.Errorf("days = %+v", days)
	}

	w = h.do(http.MethodGet, "/schedule/calendar.ics", "", nil)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("BEGIN:VCALENDAR")) {
		t.Errorf("calendar status = %d body %q", w.Code, w.Body.String())
	}
}

func TestEmptyCalendar(t *testing.T) {
	h := newHarness(t, false)
	if w := h.do(http.MethodGet, "/schedule/calendar.ics", "", nil); w.Code != http.StatusNoContent {
		t.Errorf("status = %d", w.Code)
	}
}

func TestEmailWithoutMailer(t *testing.T) {
	h := newHarness(t, false)
	coach := h.signIn("coach-cred")
	w := h.do(http.MethodPost, "/events", coach, workout(0))
	var created api.Created
	decode(t, w, &created)

	w = h.do(http.MethodPost, "/events/"+created.ID+"/email", coach, api.EmailRequest{Subject: "s", Content: "c"})
	if w.Code != http.StatusPreconditionFailed || errorCode(t, w) != api.CodeFailedPrecondition {
		t.Errorf("status = %d body %s", w.Code, w.Body.String())
	}
}

func TestToAPIError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   api.Code
		status int
	}{
		{"unknown", errors.New("boom"), api.CodeInternal, http.StatusInternalServerError},
		{"wrapped not found", errors.Join(errors.New("ctx"), event.ErrNotFound), api.CodeNotFound, http.StatusNotFound},
		{"expired session", session.ErrSessionExpired, api.CodeUnauthenticated, http.StatusUnauthorized},
		{"picture too large", profile.ErrTooLarge, api.CodeInvalidArgument, http.StatusRequestEntityTooLarge},
		{"mail delivery", mail.ErrDelivery, api.CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toAPIError(tt.err)
			if got.Code != tt.code || got.Status() != tt.status {
				t.Errorf("toAPIError() = %s/%d, want %s/%d", got.Code, got.Status(), tt.code, tt.status)
			}
		})
	}
}

func TestCORSPreflightAllowsAuthorization(t *testing.T) {
	h := newHarness(t, false)
	req := httptest.NewRequest(http.MethodOptions, "/events/abc/rsvp", nil)
	req.Header.Set("Origin", "https://tritonthenix.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", w.Code)
	}
	allowed := strings.ToLower(w.Header().Get("Access-Control-Allow-Headers"))
	if !strings.Contains(allowed, "authorization") {
		t.Errorf("Access-Control-Allow-Headers = %q, want authorization", allowed)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("Access-Control-Allow-Origin missing")
	}
}

func TestTempAdminPicture(t *testing.T) {
	h := newHarness(t, true)
	w := h.do(http.MethodPost, "/auth/temp-admin", "", nil)
	var resp api.Session
	decode(t, w, &resp)

	if w := h.do(http.MethodDelete, "/me/picture", resp.Token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("DELETE /me/picture status = %d: %s", w.Code, w.Body.String())
	}
	w = h.do(http.MethodGet, "/me", resp.Token, nil)
	var me api.Me
	decode(t, w, &me)
	if me.Email != TestAdmin.Email || me.ProfilePicture != "" || !me.TempAdmin {
		t.Errorf("me = %+v", me)
	}
}
