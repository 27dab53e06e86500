package main

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"tritonthenix/api"
	"tritonthenix/schedule"
	"tritonthenix/services/calendar"
	"tritonthenix/services/event"
	"tritonthenix/services/mail"
	"tritonthenix/services/profile"
	"tritonthenix/services/session"
	"tritonthenix/services/user"
	"tritonthenix/validator"
)

// ensure that we've conformed to the `ServerInterface` with a compile-time check
var _ api.ServerInterface = (*Server)(nil)

const (
	defaultDayCount = 7
	maxDayCount     = 60
)

// TestAdmin is the identity used by the development temp-admin switch.
var TestAdmin = session.Identity{
	Email:   "admin@tritonthenix.com",
	Name:    "Test Admin",
	Picture: "https://ui-avatars.com/api/?name=Test+Admin&background=0D8ABC&color=fff",
}

type Server struct {
	EventService   event.Service
	SessionService session.Service
	UserService    user.Service
	MailService    mail.Service
	ProfileService profile.Service
	Verifier       validator.Verifier
	AllowTempAdmin bool
	Now            func() time.Time
}

func (s Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func currentSession(c *gin.Context) *session.Session {
	sess, _ := validator.FromContext(c)
	return sess
}

func (s Server) GetPing(c *gin.Context) {
	c.JSON(http.StatusOK, api.Pong{Message: "pong"})
}

func (s Server) SignIn(c *gin.Context) {
	var body api.CredentialRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		handleError(c, api.NewError(api.CodeInvalidArgument, "invalid request body: %v", err))
		return
	}
	identity, err := s.Verifier.Verify(c.Request.Context(), body.Credential)
	if err != nil {
		handleError(c, err)
		return
	}
	s.startSession(c, identity, false)
}

func (s Server) SignInTempAdmin(c *gin.Context) {
	if !s.AllowTempAdmin {
		handleError(c, api.NewError(api.CodePermissionDenied, "temp admin is disabled"))
		return
	}
	s.startSession(c, TestAdmin, true)
}

func (s Server) startSession(c *gin.Context, identity session.Identity, tempAdmin bool) {
	ctx := c.Request.Context()
	sess, token, err := s.SessionService.Create(ctx, identity, tempAdmin)
	if err != nil {
		handleError(c, err)
		return
	}
	p, err := s.UserService.RecordLogin(ctx, identity, sess.IsAdmin)
	if err != nil {
		log.Warn().Err(err).Str("email", sess.Email).Msg("failed to record login")
	}
	c.JSON(http.StatusOK, api.Session{
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
		User:      api.TransformMe(sess, p),
	})
}

func (s Server) SignOut(c *gin.Context) {
	token, _ := validator.TokenFromContext(c)
	if err := s.SessionService.Destroy(c.Request.Context(), token); err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s Server) GetMe(c *gin.Context) {
	sess := currentSession(c)
	if sess == nil {
		handleError(c, event.ErrUnauthenticated)
		return
	}
	p, err := s.UserService.Get(c.Request.Context(), sess.Email)
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.TransformMe(sess, p))
}

func (s Server) UploadPicture(c *gin.Context) {
	sess := currentSession(c)
	if sess == nil {
		handleError(c, event.ErrUnauthenticated)
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		handleError(c, api.NewError(api.CodeInvalidArgument, "file is required"))
		return
	}
	f, err := header.Open()
	if err != nil {
		handleError(c, err)
		return
	}
	defer f.Close()
	url, err := s.ProfileService.Upload(c.Request.Context(), sess.Email, header.Header.Get("Content-Type"), f)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.Picture{ProfilePicture: url})
}

func (s Server) RemovePicture(c *gin.Context) {
	sess := currentSession(c)
	if sess == nil {
		handleError(c, event.ErrUnauthenticated)
		return
	}
	if err := s.ProfileService.Remove(c.Request.Context(), sess.Email); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s Server) ListEvents(c *gin.Context) {
	events, err := s.EventService.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.TransformEvents(events))
}

func (s Server) CreateEvent(c *gin.Context) {
	var body api.EventDraft
	if err := c.ShouldBindJSON(&body); err != nil {
		handleError(c, api.NewError(api.CodeInvalidArgument, "invalid request body: %v", err))
		return
	}
	id, err := s.EventService.Create(c.Request.Context(), currentSession(c), body.ToDraft())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, api.Created{ID: id})
}

func (s Server) ListEventHistory(c *gin.Context) {
	events, err := s.EventService.ListHistory(c.Request.Context(), currentSession(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.TransformEvents(events))
}

// StreamEvents pushes the full ordered event list as a server-sent event
// after every change until the client goes away.
func (s Server) StreamEvents(c *gin.Context) {
	ctx := c.Request.Context()
	updates := make(chan []schedule.Event, 1)
	go func() {
		defer close(updates)
		err := s.EventService.Watch(ctx, func(events []schedule.Event) {
			select {
			case updates <- events:
			case <-ctx.Done():
			}
		})
		if err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("event stream stopped")
		}
	}()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case events, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("events", api.TransformEvents(events))
			return true
		case <-ctx.Done():
			return false
		}
	})
}

func (s Server) GetEvent(c *gin.Context, id string) {
	e, err := s.EventService.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.TransformEvent(*e))
}

func (s Server) UpdateEvent(c *gin.Context, id string) {
	var body api.EventPatch
	if err := c.ShouldBindJSON(&body); err != nil {
		handleError(c, api.NewError(api.CodeInvalidArgument, "invalid request body: %v", err))
		return
	}
	if err := s.EventService.Update(c.Request.Context(), currentSession(c), id, body.ToPatch()); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s Server) DeleteEvent(c *gin.Context, id string, params api.DeleteEventParams) {
	if err := s.EventService.Delete(c.Request.Context(), currentSession(c), id, params.Confirm); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s Server) DuplicateEvent(c *gin.Context, id string) {
	var body api.DuplicateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			handleError(c, api.NewError(api.CodeInvalidArgument, "invalid request body: %v", err))
			return
		}
	}
	newID, err := s.EventService.Duplicate(c.Request.Context(), currentSession(c), id, body.Date, body.Time)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, api.Created{ID: newID})
}

func (s Server) ToggleRSVP(c *gin.Context, id string) {
	result, err := s.EventService.ToggleRSVP(c.Request.Context(), currentSession(c), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.RSVPResult{
		Outcome: string(result.Outcome),
		Event:   api.TransformEvent(result.Event),
	})
}

func (s Server) ListAttendees(c *gin.Context, id string) {
	ctx := c.Request.Context()
	e, err := s.EventService.Get(ctx, id)
	if err != nil {
		handleError(c, err)
		return
	}
	profiles, err := s.UserService.Attendees(ctx, e.Attendees)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.TransformAttendees(profiles))
}

func (s Server) EmailAttendees(c *gin.Context, id string) {
	var body api.EmailRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		handleError(c, api.NewError(api.CodeInvalidArgument, "invalid request body: %v", err))
		return
	}
	n, err := s.MailService.SendToAttendees(c.Request.Context(), currentSession(c), id, mail.Message{
		Subject: body.Subject,
		Content: body.Content,
	})
	if n > 0 && errors.Is(err, mail.ErrDelivery) {
		handleError(c, api.NewError(api.CodeInternal, "Error sending email after %d recipients were sent to", n))
		return
	}
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.EmailResult{Success: true, Recipients: n})
}

func (s Server) ListWorkouts(c *gin.Context, params api.ListWorkoutsParams) {
	date := schedule.DayOf(s.now())
	if params.Date != nil {
		date = params.Date.Format(schedule.DateLayout)
	}
	events, err := s.EventService.Workouts(c.Request.Context(), date)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.TransformEvents(events))
}

func (s Server) ListScheduleEvents(c *gin.Context) {
	buckets, err := s.EventService.Events(c.Request.Context(), s.now())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.TransformBuckets(buckets))
}

func (s Server) ListDays(c *gin.Context, params api.ListDaysParams) {
	count := defaultDayCount
	if params.Count != nil {
		count = min(max(*params.Count, 1), maxDayCount)
	}
	c.JSON(http.StatusOK, api.TransformDays(schedule.Days(s.now(), count)))
}

func (s Server) GetCalendar(c *gin.Context) {
	events, err := s.EventService.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	now := s.now()
	var buf bytes.Buffer
	err = calendar.Encode(&buf, calendar.Upcoming(events, now), now)
	if errors.Is(err, calendar.ErrEmpty) {
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		handleError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="tritonthenix.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}
