package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/caseops/workbasket/pkg/usecase"
	"github.com/caseops/workbasket/pkg/utils/logging"
)

type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
}

type Options func(*Server)

func New(uc *usecase.UseCases, opts ...Options) (*Server, error) {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/activity", func(r chi.Router) {
			r.Post("/", s.createActivity)
			r.Get("/", s.listActivities)

			// Per-user queue views; registered before /{id} so the
			// literal segment wins over the numeric one
			r.Route("/workgroup", func(r chi.Router) {
				r.Get("/pending", s.pendingActivities)
				r.Get("/accepted", s.acceptedActivities)
			})

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getActivity)
				r.Delete("/", s.softDeleteActivity)
				r.Post("/accept", s.acceptActivity)
				r.Post("/reject", s.rejectActivity)
				r.Post("/complete", s.completeActivity)
				r.Post("/restore", s.restoreActivity)
				r.Delete("/purge", s.purgeActivity)
				r.Get("/decisions", s.listDecisions)
			})
		})

		r.Route("/workbasket", func(r chi.Router) {
			r.Post("/", s.createBasket)
			r.Get("/", s.listBaskets)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getBasket)
				r.Put("/", s.updateBasket)
				r.Delete("/", s.softDeleteBasket)
				r.Post("/restore", s.restoreBasket)
				r.Delete("/purge", s.purgeBasket)
			})
		})

		r.Route("/workgroup", func(r chi.Router) {
			r.Post("/", s.createGroup)
			r.Get("/", s.listGroups)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getGroup)
				r.Put("/", s.updateGroup)
				r.Delete("/", s.softDeleteGroup)
				r.Post("/restore", s.restoreGroup)
				r.Delete("/purge", s.purgeGroup)
				r.Get("/members", s.listGroupMembers)
				r.Put("/members/{userID}", s.addGroupMember)
				r.Delete("/members/{userID}", s.removeGroupMember)
			})
		})
	})

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
