package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/sqlrevise/internal/domain"
	"github.com/example/sqlrevise/internal/review"
	"github.com/example/sqlrevise/internal/session"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

// Previewer renders the contents of a fixture table for display.
type Previewer interface {
	Preview(ctx context.Context, table string) (*domain.Result, error)
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	ctrl      *session.Controller
	preview   Previewer
	router    *http.ServeMux
	templates *template.Template
	log       *slog.Logger
}

// NewServer creates and configures a new server.
func NewServer(ctrl *session.Controller, preview Previewer, logger *slog.Logger) *Server {
	tpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		ctrl:      ctrl,
		preview:   preview,
		router:    http.NewServeMux(),
		templates: tpl,
		log:       logger,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		log.Fatalf("Failed to create sub-filesystem for static assets: %v", err)
	}
	s.router.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// HTMX-based routes
	s.router.HandleFunc("/", s.handleIndex())
	s.router.HandleFunc("/exercises", s.handleListExercises())
	s.router.HandleFunc("/exercise/next", s.handleNextExercise())
	s.router.HandleFunc("/submit/", s.handleSubmit())
	s.router.HandleFunc("/schedule/", s.handleSchedule())
	s.router.HandleFunc("/reset/", s.handleReset())
	s.router.HandleFunc("/reset", s.handleResetAll())
	s.router.HandleFunc("/tables/", s.handleTables())
}

// filterFrom builds the selection filter from query/form parameters. Empty
// parameters mean "no constraint".
func filterFrom(r *http.Request) domain.Filter {
	return domain.Filter{
		Theme:      r.FormValue("theme"),
		Difficulty: domain.Difficulty(r.FormValue("difficulty")),
		Author:     r.FormValue("author"),
	}
}

// handleIndex renders the page shell with the filter selectors.
func (s *Server) handleIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		themes, authors, difficulties := s.ctrl.FilterOptions()
		data := map[string]interface{}{
			"Themes":       themes,
			"Authors":      authors,
			"Difficulties": difficulties,
		}
		s.templates.ExecuteTemplate(w, "index", data)
	}
}

// handleListExercises renders the filtered exercise list, most overdue first.
func (s *Server) handleListExercises() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statuses, err := s.ctrl.List(r.Context(), filterFrom(r))
		if err != nil {
			s.log.Error("failed to list exercises", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.templates.ExecuteTemplate(w, "exercise_list", map[string]interface{}{
			"Statuses": statuses,
		})
	}
}

// handleNextExercise renders the most-overdue due exercise, or the
// nothing-due view with a reset action.
func (s *Server) handleNextExercise() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ex, err := s.ctrl.BeginSession(r.Context(), filterFrom(r))
		if err != nil {
			s.log.Error("failed to select next exercise", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if ex == nil {
			s.templates.ExecuteTemplate(w, "nothing_due", nil)
			return
		}
		s.templates.ExecuteTemplate(w, "exercise", map[string]interface{}{
			"Exercise":  ex,
			"Intervals": review.Intervals,
		})
	}
}

// handleSubmit grades a submission and renders the verdict.
func (s *Server) handleSubmit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		name := strings.TrimPrefix(r.URL.Path, "/submit/")
		ex, ok := s.ctrl.Find(name)
		if !ok {
			http.NotFound(w, r)
			return
		}

		verdict, err := s.ctrl.Submit(r.Context(), ex, r.PostFormValue("sql"))
		if err != nil {
			if errors.Is(err, session.ErrExerciseUnavailable) {
				// Fixture fault, not the learner's mistake.
				s.templates.ExecuteTemplate(w, "exercise_unavailable", nil)
				return
			}
			s.log.Error("failed to grade submission", "exercise", name, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.templates.ExecuteTemplate(w, "verdict", map[string]interface{}{
			"Exercise": ex,
			"Verdict":  verdict,
		})
	}
}

// handleSchedule applies one of the fixed reschedule intervals and shows
// the next due exercise.
func (s *Server) handleSchedule() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		name := strings.TrimPrefix(r.URL.Path, "/schedule/")
		days, err := strconv.Atoi(r.PostFormValue("days"))
		if err != nil {
			http.Error(w, "Invalid interval", http.StatusBadRequest)
			return
		}

		if err := s.ctrl.Schedule(r.Context(), name, days); err != nil {
			switch {
			case errors.Is(err, review.ErrInvalidInterval):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, review.ErrNotFound):
				http.NotFound(w, r)
			default:
				s.log.Error("failed to reschedule", "exercise", name, "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
			return
		}
		s.handleNextExercise()(w, r)
	}
}

// handleReset makes a single exercise immediately due again.
func (s *Server) handleReset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		name := strings.TrimPrefix(r.URL.Path, "/reset/")
		if err := s.ctrl.Reset(r.Context(), name); err != nil {
			if errors.Is(err, review.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			s.log.Error("failed to reset exercise", "exercise", name, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.handleNextExercise()(w, r)
	}
}

// handleResetAll resets every exercise in the current filtered view.
func (s *Server) handleResetAll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := s.ctrl.ResetAll(r.Context(), filterFrom(r)); err != nil {
			s.log.Error("failed to reset review dates", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.handleNextExercise()(w, r)
	}
}

// handleTables renders the backing tables of one exercise.
func (s *Server) handleTables() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/tables/")
		ex, ok := s.ctrl.Find(name)
		if !ok {
			http.NotFound(w, r)
			return
		}

		type preview struct {
			Name   string
			Result *domain.Result
		}
		var previews []preview
		for _, table := range ex.TablesUsed {
			result, err := s.preview.Preview(r.Context(), table)
			if err != nil {
				s.log.Error("failed to preview table", "table", table, "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			previews = append(previews, preview{Name: table, Result: result})
		}
		s.templates.ExecuteTemplate(w, "tables", map[string]interface{}{
			"Exercise": ex,
			"Previews": previews,
		})
	}
}
