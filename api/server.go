package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /ping)
	GetPing(c *gin.Context)
	// (POST /auth/credential)
	SignIn(c *gin.Context)
	// (POST /auth/temp-admin)
	SignInTempAdmin(c *gin.Context)
	// (POST /auth/signout)
	SignOut(c *gin.Context)
	// (GET /me)
	GetMe(c *gin.Context)
	// (PUT /me/picture)
	UploadPicture(c *gin.Context)
	// (DELETE /me/picture)
	RemovePicture(c *gin.Context)
	// (GET /events)
	ListEvents(c *gin.Context)
	// (POST /events)
	CreateEvent(c *gin.Context)
	// (GET /events/history)
	ListEventHistory(c *gin.Context)
	// (GET /events/stream)
	StreamEvents(c *gin.Context)
	// (GET /events/{id})
	GetEvent(c *gin.Context, id string)
	// (PATCH /events/{id})
	UpdateEvent(c *gin.Context, id string)
	// (DELETE /events/{id})
	DeleteEvent(c *gin.Context, id string, params DeleteEventParams)
	// (POST /events/{id}/duplicate)
	DuplicateEvent(c *gin.Context, id string)
	// (POST /events/{id}/rsvp)
	ToggleRSVP(c *gin.Context, id string)
	// (GET /events/{id}/attendees)
	ListAttendees(c *gin.Context, id string)
	// (POST /events/{id}/email)
	EmailAttendees(c *gin.Context, id string)
	// (GET /schedule/workouts)
	ListWorkouts(c *gin.Context, params ListWorkoutsParams)
	// (GET /schedule/events)
	ListScheduleEvents(c *gin.Context)
	// (GET /schedule/days)
	ListDays(c *gin.Context, params ListDaysParams)
	// (GET /schedule/calendar.ics)
	GetCalendar(c *gin.Context)
}

type MiddlewareFunc func(c *gin.Context)

// ServerInterfaceWrapper converts gin contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	AdminMiddleware    MiddlewareFunc
	ErrorHandler       func(*gin.Context, error, int)
}

// run applies the shared middlewares, then the admin check when admin is
// set, stopping as soon as one aborts.
func (siw *ServerInterfaceWrapper) run(c *gin.Context, admin bool) bool {
	for _, middleware := range siw.HandlerMiddlewares {
		middleware(c)
		if c.IsAborted() {
			return false
		}
	}
	if admin && siw.AdminMiddleware != nil {
		siw.AdminMiddleware(c)
		if c.IsAborted() {
			return false
		}
	}
	return true
}

func (siw *ServerInterfaceWrapper) pathID(c *gin.Context) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", c.Param("id"), &id, runtime.BindStyledParameterOptions{Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandler(c, fmt.Errorf("Invalid format for parameter id: %w", err), http.StatusBadRequest)
		return "", false
	}
	return id, true
}

func (siw *ServerInterfaceWrapper) plain(admin bool, h func(*gin.Context)) gin.HandlerFunc {
	return func(c *gin.Context) {
		if siw.run(c, admin) {
			h(c)
		}
	}
}

func (siw *ServerInterfaceWrapper) withID(admin bool, h func(*gin.Context, string)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := siw.pathID(c)
		if !ok || !siw.run(c, admin) {
			return
		}
		h(c, id)
	}
}

// DeleteEvent operation middleware
func (siw *ServerInterfaceWrapper) DeleteEvent(c *gin.Context) {
	id, ok := siw.pathID(c)
	if !ok {
		return
	}
	var params DeleteEventParams
	err := runtime.BindQueryParameter("form", true, true, "confirm", c.Request.URL.Query(), &params.Confirm)
	if err != nil {
		siw.ErrorHandler(c, fmt.Errorf("Invalid format for parameter confirm: %w", err), http.StatusBadRequest)
		return
	}
	if !siw.run(c, true) {
		return
	}
	siw.Handler.DeleteEvent(c, id, params)
}

// ListWorkouts operation middleware
func (siw *ServerInterfaceWrapper) ListWorkouts(c *gin.Context) {
	var params ListWorkoutsParams
	err := runtime.BindQueryParameter("form", true, false, "date", c.Request.URL.Query(), &params.Date)
	if err != nil {
		siw.ErrorHandler(c, fmt.Errorf("Invalid format for parameter date: %w", err), http.StatusBadRequest)
		return
	}
	if !siw.run(c, false) {
		return
	}
	siw.Handler.ListWorkouts(c, params)
}

// ListDays operation middleware
func (siw *ServerInterfaceWrapper) ListDays(c *gin.Context) {
	var params ListDaysParams
	err := runtime.BindQueryParameter("form", true, false, "count", c.Request.URL.Query(), &params.Count)
	if err != nil {
		siw.ErrorHandler(c, fmt.Errorf("Invalid format for parameter count: %w", err), http.StatusBadRequest)
		return
	}
	if !siw.run(c, false) {
		return
	}
	siw.Handler.ListDays(c, params)
}

// GinServerOptions provides options for the Gin server.
type GinServerOptions struct {
	BaseURL      string
	Middlewares  []MiddlewareFunc
	Admin        MiddlewareFunc
	ErrorHandler func(*gin.Context, error, int)
}

// RegisterHandlers creates http.Handler with routing matching OpenAPI spec.
func RegisterHandlers(router gin.IRouter, si ServerInterface) {
	RegisterHandlersWithOptions(router, si, GinServerOptions{})
}

// RegisterHandlersWithOptions creates http.Handler with additional options
func RegisterHandlersWithOptions(router gin.IRouter, si ServerInterface, options GinServerOptions) {
	errorHandler := options.ErrorHandler
	if errorHandler == nil {
		errorHandler = func(c *gin.Context, err error, statusCode int) {
			WriteError(c, &Error{Code: CodeForStatus(statusCode), Message: err.Error(), HTTPStatus: statusCode})
		}
	}

	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		AdminMiddleware:    options.Admin,
		ErrorHandler:       errorHandler,
	}
	base := options.BaseURL

	router.GET(base+"/ping", wrapper.plain(false, si.GetPing))
	router.POST(base+"/auth/credential", wrapper.plain(false, si.SignIn))
	router.POST(base+"/auth/temp-admin", wrapper.plain(false, si.SignInTempAdmin))
	router.POST(base+"/auth/signout", wrapper.plain(false, si.SignOut))
	router.GET(base+"/me", wrapper.plain(false, si.GetMe))
	router.PUT(base+"/me/picture", wrapper.plain(false, si.UploadPicture))
	router.DELETE(base+"/me/picture", wrapper.plain(false, si.RemovePicture))
	router.GET(base+"/events", wrapper.plain(false, si.ListEvents))
	router.POST(base+"/events", wrapper.plain(true, si.CreateEvent))
	router.GET(base+"/events/history", wrapper.plain(true, si.ListEventHistory))
	router.GET(base+"/events/stream", wrapper.plain(false, si.StreamEvents))
	router.GET(base+"/events/:id", wrapper.withID(false, si.GetEvent))
	router.PATCH(base+"/events/:id", wrapper.withID(true, si.UpdateEvent))
	router.DELETE(base+"/events/:id", wrapper.DeleteEvent)
	router.POST(base+"/events/:id/duplicate", wrapper.withID(true, si.DuplicateEvent))
	router.POST(base+"/events/:id/rsvp", wrapper.withID(false, si.ToggleRSVP))
	router.GET(base+"/events/:id/attendees", wrapper.withID(true, si.ListAttendees))
	router.POST(base+"/events/:id/email", wrapper.withID(true, si.EmailAttendees))
	router.GET(base+"/schedule/workouts", wrapper.ListWorkouts)
	router.GET(base+"/schedule/events", wrapper.plain(false, si.ListScheduleEvents))
	router.GET(base+"/schedule/days", wrapper.ListDays)
	router.GET(base+"/schedule/calendar.ics", wrapper.plain(false, si.GetCalendar))
}
