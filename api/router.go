// Package api serves the edutrack operations over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alvinp540/edutrack/school"
)

// ShutdownTimeout bounds how long Serve waits for in-flight requests.
const ShutdownTimeout = 10 * time.Second

// Options configures NewRouter.
type Options struct {
	// Gatherer is served at /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	// Logger receives request and error logs. Nil means slog.Default().
	Logger *slog.Logger
}

// NewRouter returns the edutrack HTTP handler.
//
//	GET    /health
//	GET    /metrics
//	GET    /v1/stats
//	CRUD   /v1/{teachers,classes,students,subjects,exams}[/:ref]
//	CRUD   /v1/attendance[/:ref]   (ref may be "<student>|<YYYY-MM-DD>")
//	CRUD   /v1/results[/:id]
//	GET    /v1/students/:ref/attendance
//	GET    /v1/students/:ref/attendance-summary
//	GET    /v1/students/:ref/results
//	GET    /v1/students/:ref/transcript
//	GET    /v1/classes/:ref/roster
func NewRouter(svc *school.Service, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{svc: svc, logger: logger}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.GET("/health", h.HandleHealth)
	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/v1")
	v1.GET("/stats", h.HandleStats)

	teachers := v1.Group("/teachers")
	teachers.GET("", list(h, svc.ListTeachers))
	teachers.GET("/:ref", get(h, svc.GetTeacher))
	teachers.POST("", create(h, svc.AddTeacher))
	teachers.PATCH("/:ref", update(h, svc.UpdateTeacher))
	teachers.DELETE("/:ref", remove(h, svc.DeleteTeacher))

	classes := v1.Group("/classes")
	classes.GET("", list(h, svc.ListClasses))
	classes.GET("/:ref", get(h, svc.GetClass))
	classes.GET("/:ref/roster", get(h, svc.Roster))
	classes.POST("", create(h, svc.AddClass))
	classes.PATCH("/:ref", update(h, svc.UpdateClass))
	classes.DELETE("/:ref", remove(h, svc.DeleteClass))

	students := v1.Group("/students")
	students.GET("", list(h, svc.ListStudents))
	students.GET("/:ref", get(h, svc.GetStudent))
	students.GET("/:ref/attendance", get(h, svc.StudentAttendance))
	students.GET("/:ref/attendance-summary", get(h, svc.AttendanceSummary))
	students.GET("/:ref/results", get(h, svc.StudentResults))
	students.GET("/:ref/transcript", get(h, svc.Transcript))
	students.POST("", create(h, svc.AddStudent))
	students.PATCH("/:ref", update(h, svc.UpdateStudent))
	students.DELETE("/:ref", remove(h, svc.DeleteStudent))

	subjects := v1.Group("/subjects")
	subjects.GET("", list(h, svc.ListSubjects))
	subjects.GET("/:ref", get(h, svc.GetSubject))
	subjects.POST("", create(h, svc.AddSubject))
	subjects.PATCH("/:ref", update(h, svc.UpdateSubject))
	subjects.DELETE("/:ref", remove(h, svc.DeleteSubject))

	exams := v1.Group("/exams")
	exams.GET("", list(h, svc.ListExams))
	exams.GET("/:ref", get(h, svc.GetExam))
	exams.POST("", create(h, svc.AddExam))
	exams.PATCH("/:ref", update(h, svc.UpdateExam))
	exams.DELETE("/:ref", remove(h, svc.DeleteExam))

	attendance := v1.Group("/attendance")
	attendance.GET("", list(h, svc.ListAttendance))
	attendance.GET("/:ref", get(h, svc.GetAttendance))
	attendance.POST("", create(h, svc.RecordAttendance))
	attendance.PATCH("/:ref", update(h, svc.UpdateAttendance))
	attendance.DELETE("/:ref", remove(h, svc.DeleteAttendance))

	results := v1.Group("/results")
	results.GET("", list(h, svc.ListResults))
	results.GET("/:ref", get(h, svc.GetResult))
	results.POST("", create(h, svc.RecordResult))
	results.PATCH("/:ref", update(h, svc.UpdateResult))
	results.DELETE("/:ref", remove(h, svc.DeleteResult))

	return router
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelDebug
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Serve runs handler on addr until ctx is canceled, then shuts down
// gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("http server stopped")
	return nil
}
