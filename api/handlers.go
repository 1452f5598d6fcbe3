package api

import (
	"card-scheduler/appointment"
	"card-scheduler/locker"
	"card-scheduler/metrics"
	"card-scheduler/scheduler"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type API struct {
	root   *mux.Router
	router *mux.Router
	db     *sql.DB
	redis  *redis.Client

	configs      scheduler.Store
	appointments *appointment.Accessor

	now               func() time.Time
	location          *time.Location
	logger            *zerolog.Logger
	jwtSecret         []byte
	bookingsPerSecond int
	allowedOrigins    []string
	cacheTTL          time.Duration
	lockTTL           time.Duration
}

type Option func(*API)

func WithLogger(logger *zerolog.Logger) Option {
	return func(a *API) { a.logger = logger }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(a *API) { a.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(a *API) { a.location = loc }
}

// WithRedis enables the scheduler config cache and the booking lock.
func WithRedis(rdb *redis.Client, cacheTTL, lockTTL time.Duration) Option {
	return func(a *API) {
		a.redis = rdb
		a.cacheTTL = cacheTTL
		a.lockTTL = lockTTL
	}
}

// WithJWTSecret turns on bearer token checks for owner routes.
func WithJWTSecret(secret string) Option {
	return func(a *API) { a.jwtSecret = []byte(secret) }
}

func WithBookingRateLimit(perSecond int) Option {
	return func(a *API) { a.bookingsPerSecond = perSecond }
}

func WithAllowedOrigins(origins []string) Option {
	return func(a *API) { a.allowedOrigins = origins }
}

func NewAPI(db *sql.DB, opts ...Option) *API {
	nop := zerolog.Nop()
	r := mux.NewRouter()
	a := &API{
		root:              r,
		router:            r.PathPrefix("/api").Subrouter(),
		db:                db,
		location:          time.Local,
		logger:            &nop,
		bookingsPerSecond: 5,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.now == nil {
		a.now = time.Now
	}

	var configs scheduler.Store = scheduler.NewAccessor(db)
	if a.redis != nil {
		configs = scheduler.NewCachedStore(configs, a.redis, a.cacheTTL, a.logger)
	}
	a.configs = configs

	a.appointments = appointment.NewAccessor(db, configs).WithLocation(a.location)
	if a.redis != nil {
		a.appointments.WithLocker(locker.New(a.redis, a.logger), a.lockTTL)
	}

	metrics.Register()
	return a
}

// Router exposes the bare router without logging or recovery middleware.
func (a *API) Router() http.Handler {
	return a.root
}

func (a *API) Handler() http.Handler {
	var h http.Handler = a.root
	if len(a.allowedOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(a.allowedOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}),
			handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		)(h)
	}
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{a.logger}), handlers.PrintRecoveryStack(false))(h)

	// Use Gorilla's built-in logging handler
	out := a.logger.With().Str("component", "http").Logger()
	return handlers.LoggingHandler(accessLog{&out}, h)
}

// accessLog feeds gorilla's combined log lines into zerolog.
type accessLog struct {
	logger *zerolog.Logger
}

func (l accessLog) Write(p []byte) (int, error) {
	n := len(p)
	if n > 0 && p[n-1] == '\n' {
		p = p[:n-1]
	}
	l.logger.Info().Msg(string(p))
	return n, nil
}

type recoveryLogger struct {
	logger *zerolog.Logger
}

func (l recoveryLogger) Println(v ...any) {
	l.logger.Error().Interface("panic", v).Msg("recovered from panic")
}

type Response struct {
	Status   int `json:"status"`
	Response any `json:"response"`
}

func (a *API) Response(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(Response{
		Status:   status,
		Response: data,
	})
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// fail maps domain errors onto status codes. Unexpected errors are logged and answered generically.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, appointment.ErrValidation):
		a.Response(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, appointment.ErrNotFound):
		a.Response(w, http.StatusNotFound, "appointment not found")
	case errors.Is(err, appointment.ErrSchedulerNotFound):
		a.Response(w, http.StatusNotFound, "scheduler not found")
	case errors.Is(err, appointment.ErrSlotUnavailable),
		errors.Is(err, appointment.ErrSlotTaken),
		errors.Is(err, appointment.ErrInvalidTransition):
		a.Response(w, http.StatusConflict, err.Error())
	default:
		a.logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		a.Response(w, http.StatusInternalServerError, "internal server error")
	}
}

func (a *API) clock() time.Time {
	return a.now().In(a.location)
}

func (a *API) RegisterRoutes() {
	a.root.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	a.router.HandleFunc("/health", a.health).Methods(http.MethodGet)
	a.router.HandleFunc("/ready", a.ready).Methods(http.MethodGet)

	owner := a.requireToken

	a.router.Handle("/appointments/scheduler", owner(a.upsertScheduler)).Methods(http.MethodPost)
	a.router.HandleFunc("/appointments/scheduler/{userId}", a.getScheduler).Methods(http.MethodGet)
	a.router.HandleFunc("/appointments/scheduler/{userId}/slots", a.getFreeSlots).Methods(http.MethodGet)

	a.router.Handle("/appointments", bookingLimiter(a.bookingsPerSecond)(http.HandlerFunc(a.createAppointment))).Methods(http.MethodPost)
	a.router.Handle("/appointments", owner(a.getAppointments)).Methods(http.MethodGet)
	a.router.Handle("/appointments/user/{userId}", owner(a.getOwnerAppointments)).Methods(http.MethodGet)
	a.router.Handle("/appointments/user/{userId}/export", owner(a.exportOwnerAppointments)).Methods(http.MethodGet)
	a.router.Handle("/appointments/{id}/approve", owner(a.approveAppointment)).Methods(http.MethodPut)
	a.router.Handle("/appointments/{id}/reject", owner(a.rejectAppointment)).Methods(http.MethodPatch)
	a.router.Handle("/appointments/{id}", owner(a.deleteAppointment)).Methods(http.MethodDelete)
}

// Appointments exposes the appointment accessor for background workers.
func (a *API) Appointments() *appointment.Accessor {
	return a.appointments
}
