// Appointment HTTP handlers.
//
// This file exposes REST endpoints for the repair-shop appointment book:
//   - GET    /appointments               (list, filtered + paginated, ETag support)
//   - POST   /appointments               (book, Idempotency-Key replay)
//   - GET    /appointments/{id}          (fetch one)
//   - PATCH  /appointments/{id}          (reschedule / edit)
//   - PUT    /appointments/{id}          (same as PATCH)
//   - DELETE /appointments/{id}          (cancel)
//   - GET    /appointments/duplicates    (duplicate probe for the booking form)
//   - GET    /appointments/export.csv    (spreadsheet export)
//   - GET    /appointments/export.ics    (calendar export)
//
// Handlers are transport-thin: they bind input, call application services,
// and translate service errors into the error envelope.
package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"

	"github.com/tbourn/go-repair-scheduler/internal/domain"
	"github.com/tbourn/go-repair-scheduler/internal/export"
	"github.com/tbourn/go-repair-scheduler/internal/http/middleware"
	"github.com/tbourn/go-repair-scheduler/internal/services"
	"github.com/tbourn/go-repair-scheduler/internal/utils"
)

// jsonAPI encodes list bodies before hashing them for the ETag.
var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

//
// Service contracts (context-aware)
//

// AppointmentQueries is the read side of the appointment book.
type AppointmentQueries interface {
	// ListSorted returns appointments in display order, narrowed by f.
	ListSorted(ctx context.Context, f services.ListFilter) ([]domain.Appointment, error)
	// Get returns one appointment or services.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Appointment, error)
	// CheckDuplicate reports whether vehicleModel is already booked on date.
	CheckDuplicate(ctx context.Context, date, vehicleModel, excludeID string) bool
}

// BookingCommands is the write side of the appointment book.
type BookingCommands interface {
	Book(ctx context.Context, in domain.AppointmentInput) (*domain.Appointment, error)
	Reschedule(ctx context.Context, id string, patch domain.AppointmentPatch) (*domain.Appointment, error)
	Cancel(ctx context.Context, id string) error
}

// IdempotencyRecorder stores the outcome of a completed request so retries
// with the same key can be replayed.
type IdempotencyRecorder func(ctx context.Context, scope, key, resourceID string, status int) error

//
// Handler wiring
//

// Options tunes Handlers. Zero values fall back to defaults.
type Options struct {
	// DefaultPageSize applies when page_size is absent.
	DefaultPageSize int
	// Calendar configures the iCalendar export.
	Calendar export.ICSOptions
	// RecordIdempotency persists completed bookings; nil disables replay
	// recording.
	RecordIdempotency IdempotencyRecorder
}

// Handlers groups the appointment endpoints.
type Handlers struct {
	queries  AppointmentQueries
	bookings BookingCommands
	opts     Options
}

// New constructs Handlers bound to the given services.
func New(queries AppointmentQueries, bookings BookingCommands, opts Options) *Handlers {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 50
	}
	return &Handlers{queries: queries, bookings: bookings, opts: opts}
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// ListAppointmentsResponse wraps a page of appointments.
type ListAppointmentsResponse struct {
	Appointments []domain.Appointment `json:"appointments"`
	Pagination   Pagination           `json:"pagination"`
}

// DuplicateResponse answers the duplicate probe.
type DuplicateResponse struct {
	Duplicate bool `json:"duplicate" example:"false"`
}

//
// Helpers
//

// listFilter reads from/to/q. Dates are normalized; a bad date is reported
// under its query parameter name.
func listFilter(c *gin.Context) (services.ListFilter, map[string]string) {
	var f services.ListFilter
	bad := map[string]string{}
	for name, dst := range map[string]*string{"from": &f.From, "to": &f.To} {
		raw := strings.TrimSpace(c.Query(name))
		if raw == "" {
			continue
		}
		d, valid := services.NormalizeDate(raw)
		if !valid {
			bad[name] = "must be a date (YYYY-MM-DD)"
			continue
		}
		*dst = d
	}
	if f.From != "" && f.To != "" && f.From > f.To {
		bad["to"] = "must not be before from"
	}
	f.Query = strings.TrimSpace(c.Query("q"))
	return f, bad
}

// weakETag derives a weak validator from a response body.
func weakETag(scope string, body []byte) string {
	return fmt.Sprintf(`W/"%s:%x"`, scope, xxhash.Sum64(body))
}

// etagMatches reports whether If-None-Match lists etag (or "*").
func etagMatches(c *gin.Context, etag string) bool {
	inm := c.GetHeader("If-None-Match")
	if inm == "" {
		return false
	}
	for _, v := range strings.Split(inm, ",") {
		v = strings.TrimSpace(v)
		if v == etag || v == "*" {
			return true
		}
	}
	return false
}

// failService maps service errors onto the error envelope.
func failService(c *gin.Context, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		failWith(c, http.StatusBadRequest, ErrorResponse{
			Code:    ErrCodeValidation,
			Message: "invalid appointment",
			Fields:  ve.Fields,
		})
	case errors.Is(err, services.ErrDuplicate):
		fail(c, http.StatusConflict, ErrCodeDuplicate, services.ErrDuplicate.Error())
	case errors.Is(err, services.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "appointment not found")
	case errors.Is(err, services.ErrIDExhausted):
		fail(c, http.StatusServiceUnavailable, ErrCodeIDUnavailable, err.Error())
	case services.IsStorageWrite(err):
		fail(c, http.StatusInternalServerError, ErrCodeStorageWrite, "could not save appointments")
	case services.IsStorageRead(err):
		fail(c, http.StatusInternalServerError, ErrCodeStorageRead, "could not read appointments")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		fail(c, http.StatusServiceUnavailable, ErrCodeInternal, "request cancelled")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}

//
// Handlers
//

// ListAppointments godoc
// @ID          listAppointments
// @Summary     List appointments
// @Description Returns appointments ordered by date and time. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Appointments
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"    example(W/\"appointments:1a2b3c\")
// @Param       from           query   string  false "First date (inclusive)"         example(2025-06-01)
// @Param       to             query   string  false "Last date (inclusive)"          example(2025-06-30)
// @Param       q              query   string  false "Search client, vehicle, notes"  example(corolla)
// @Param       page           query   int     false "Page number"                    minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"                 minimum(1) maximum(200) default(50)
//
// @Success     200  {object} handlers.ListAppointmentsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad query"
// @Failure     500  {object} handlers.ErrorResponse "Storage read failed (strict reads)"
// @Router      /appointments [get]
func (h *Handlers) ListAppointments(c *gin.Context) {
	f, bad := listFilter(c)
	if len(bad) > 0 {
		failWith(c, http.StatusBadRequest, ErrorResponse{Code: ErrCodeBadRequest, Message: "invalid query", Fields: bad})
		return
	}
	page, pageSize := utils.PageParams(
		utils.AtoiDefault(c.Query("page"), 1),
		utils.AtoiDefault(c.Query("page_size"), h.opts.DefaultPageSize),
		h.opts.DefaultPageSize,
	)

	list, err := h.queries.ListSorted(c.Request.Context(), f)
	if err != nil {
		failService(c, err)
		return
	}

	items, total := utils.Paginate(list, page, pageSize)
	totalPages := (total + pageSize - 1) / pageSize
	resp := ListAppointmentsResponse{
		Appointments: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	}

	body, err := jsonAPI.Marshal(resp)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "encode response")
		return
	}
	etag := weakETag("appointments", body)
	c.Header("ETag", etag)
	if etagMatches(c, etag) {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// CreateAppointment godoc
// @ID          createAppointment
// @Summary     Book an appointment
// @Description Validates the booking form, rejects a second booking of the same vehicle model on the same date, and stores the appointment.
// @Description Supports idempotency via the Idempotency-Key header (same key → same appointment).
// @Tags        Appointments
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    domain.AppointmentInput  true  "Booking form"
//
// @Success     201  {object} domain.Appointment
// @Header      201  {string} Location              "URL of the new appointment"
// @Header      201  {string} Idempotency-Replayed  "true when served from a previous request"
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     409  {object} handlers.ErrorResponse "Duplicate appointment"
// @Failure     500  {object} handlers.ErrorResponse "Storage failure"
// @Router      /appointments [post]
func (h *Handlers) CreateAppointment(c *gin.Context) {
	ctx := c.Request.Context()

	// Replay path: the same key already booked an appointment.
	if id, replay := middleware.ReplayResourceID(c); replay {
		a, err := h.queries.Get(ctx, id)
		if err == nil {
			c.Header(middleware.HeaderIdempotencyReplayed, "true")
			c.Header("Location", c.FullPath()+"/"+a.ID)
			ok(c, http.StatusCreated, a)
			return
		}
		// The record is gone (cancelled since); book afresh.
		middleware.LoggerFrom(c).Debug().Err(err).Str("id", id).Msg("idempotent replay target missing")
	}

	var in domain.AppointmentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	a, err := h.bookings.Book(ctx, in)
	if err != nil {
		failService(c, err)
		return
	}

	if key, has := middleware.GetIdempotencyKey(c); has && h.opts.RecordIdempotency != nil {
		if err := h.opts.RecordIdempotency(ctx, middleware.IdempotencyScope(c), key, a.ID, http.StatusCreated); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record failed")
		}
	}

	c.Header("Location", c.FullPath()+"/"+a.ID)
	ok(c, http.StatusCreated, a)
}

// GetAppointment godoc
// @ID          getAppointment
// @Summary     Get an appointment
// @Tags        Appointments
// @Produce     json
// @Param       id   path      string  true  "Appointment ID"  example(1717236000000)
// @Success     200  {object}  domain.Appointment
// @Failure     404  {object}  handlers.ErrorResponse "Not found"
// @Failure     500  {object}  handlers.ErrorResponse "Storage read failed"
// @Router      /appointments/{id} [get]
func (h *Handlers) GetAppointment(c *gin.Context) {
	a, err := h.queries.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, a)
}

// UpdateAppointment godoc
// @ID          updateAppointment
// @Summary     Edit or reschedule an appointment
// @Description Applies the supplied fields. The merged record is validated as a whole; the duplicate rule ignores the appointment itself.
// @Tags        Appointments
// @Accept      json
// @Produce     json
// @Param       id    path  string                   true  "Appointment ID"  example(1717236000000)
// @Param       body  body  domain.AppointmentPatch  true  "Fields to change"
// @Success     200  {object}  domain.Appointment
// @Failure     400  {object}  handlers.ErrorResponse "Validation failed"
// @Failure     404  {object}  handlers.ErrorResponse "Not found"
// @Failure     409  {object}  handlers.ErrorResponse "Duplicate appointment"
// @Failure     500  {object}  handlers.ErrorResponse "Storage failure"
// @Router      /appointments/{id} [patch]
// @Router      /appointments/{id} [put]
func (h *Handlers) UpdateAppointment(c *gin.Context) {
	var patch domain.AppointmentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	a, err := h.bookings.Reschedule(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, a)
}

// DeleteAppointment godoc
// @ID          deleteAppointment
// @Summary     Cancel an appointment
// @Description Removes the appointment. Cancelling an unknown id also succeeds.
// @Tags        Appointments
// @Param       id   path  string  true  "Appointment ID"  example(1717236000000)
// @Success     204  {string} string "No Content"
// @Failure     500  {object} handlers.ErrorResponse "Storage failure"
// @Router      /appointments/{id} [delete]
func (h *Handlers) DeleteAppointment(c *gin.Context) {
	if err := h.bookings.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// CheckDuplicate godoc
// @ID          checkDuplicate
// @Summary     Probe for a duplicate booking
// @Description Reports whether the vehicle model is already booked on the date. Never fails on storage errors (answers false).
// @Tags        Appointments
// @Produce     json
// @Param       date           query  string  true   "Date"                      example(2025-06-01)
// @Param       vehicle_model  query  string  true   "Vehicle model"             example(Toyota Corolla 2020)
// @Param       exclude_id     query  string  false  "Appointment to ignore"     example(1717236000000)
// @Success     200  {object}  handlers.DuplicateResponse
// @Failure     400  {object}  handlers.ErrorResponse "Missing parameters"
// @Router      /appointments/duplicates [get]
func (h *Handlers) CheckDuplicate(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	vehicle := strings.TrimSpace(c.Query("vehicle_model"))
	bad := map[string]string{}
	if date == "" {
		bad["date"] = "is required"
	} else if d, valid := services.NormalizeDate(date); valid {
		date = d
	}
	if vehicle == "" {
		bad["vehicle_model"] = "is required"
	}
	if len(bad) > 0 {
		failWith(c, http.StatusBadRequest, ErrorResponse{Code: ErrCodeBadRequest, Message: "invalid query", Fields: bad})
		return
	}
	dup := h.queries.CheckDuplicate(c.Request.Context(), date, vehicle, c.Query("exclude_id"))
	ok(c, http.StatusOK, DuplicateResponse{Duplicate: dup})
}

// ExportCSV godoc
// @ID          exportCSV
// @Summary     Export appointments as CSV
// @Tags        Export
// @Produce     text/csv
// @Param       from  query  string  false  "First date (inclusive)"
// @Param       to    query  string  false  "Last date (inclusive)"
// @Param       q     query  string  false  "Search filter"
// @Success     200  {string}  string "CSV document"
// @Failure     400  {object}  handlers.ErrorResponse "Bad query"
// @Failure     500  {object}  handlers.ErrorResponse "Export failed"
// @Router      /appointments/export.csv [get]
func (h *Handlers) ExportCSV(c *gin.Context) {
	h.export(c, "text/csv; charset=utf-8", "csv", func(buf *bytes.Buffer, list []domain.Appointment) error {
		return export.WriteCSV(buf, list)
	})
}

// ExportICS godoc
// @ID          exportICS
// @Summary     Export appointments as iCalendar
// @Tags        Export
// @Produce     text/calendar
// @Param       from  query  string  false  "First date (inclusive)"
// @Param       to    query  string  false  "Last date (inclusive)"
// @Param       q     query  string  false  "Search filter"
// @Success     200  {string}  string "iCalendar document"
// @Failure     400  {object}  handlers.ErrorResponse "Bad query"
// @Failure     500  {object}  handlers.ErrorResponse "Export failed"
// @Router      /appointments/export.ics [get]
func (h *Handlers) ExportICS(c *gin.Context) {
	h.export(c, "text/calendar; charset=utf-8", "ics", func(buf *bytes.Buffer, list []domain.Appointment) error {
		return export.WriteICS(buf, list, h.opts.Calendar)
	})
}

// export renders the filtered list into an attachment. The body is
// buffered so a render error can still produce an error envelope.
func (h *Handlers) export(c *gin.Context, contentType, ext string, render func(*bytes.Buffer, []domain.Appointment) error) {
	f, bad := listFilter(c)
	if len(bad) > 0 {
		failWith(c, http.StatusBadRequest, ErrorResponse{Code: ErrCodeBadRequest, Message: "invalid query", Fields: bad})
		return
	}
	list, err := h.queries.ListSorted(c.Request.Context(), f)
	if err != nil {
		failService(c, err)
		return
	}

	var buf bytes.Buffer
	if err := render(&buf, list); err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Str("format", ext).Msg("export failed")
		fail(c, http.StatusInternalServerError, ErrCodeExportFailed, "could not render export")
		return
	}
	name := fmt.Sprintf("appointments-%s.%s", time.Now().UTC().Format("20060102"), ext)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
