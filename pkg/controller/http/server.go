package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/moirai/pkg/usecase"
	"github.com/secmon-lab/moirai/pkg/utils/logging"
	"github.com/secmon-lab/moirai/pkg/utils/safe"
)

type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
}

func New(uc *usecase.UseCases) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		safe.Write(r.Context(), w, []byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/assets", func(r chi.Router) {
			r.Post("/", s.putAsset)
			r.Get("/{assetID}", s.getAsset)
		})
		r.Post("/threats", s.putThreat)
		r.Post("/vulnerabilities", s.putVulnerability)

		r.Route("/risks", func(r chi.Router) {
			r.Post("/", s.createRisk)
			r.Post("/calculate", s.calculateRisk)
			r.Get("/{riskID}", s.getRisk)
			r.Delete("/{riskID}", s.deleteRisk)
			r.Post("/{riskID}/recalculate", s.recalculateRisk)
			r.Post("/{riskID}/treatment", s.applyTreatment)
			r.Get("/{riskID}/escalations", s.matchedEscalations)
			r.Post("/{riskID}/simulate", s.runMonteCarlo)
		})

		r.Route("/organizations/{orgID}", func(r chi.Router) {
			r.Get("/risks", s.listRisks)
			r.Get("/dashboard", s.getDashboard)
			r.Post("/var", s.calculateVaR)
			r.Post("/scenarios", s.analyzeScenarios)

			r.Route("/matrices", func(r chi.Router) {
				r.Post("/", s.createMatrix)
				r.Post("/generate", s.generateDefaultMatrix)
				r.Get("/default", s.getDefaultMatrix)
				r.Put("/{matrixID}/default", s.activateDefaultMatrix)
			})
		})
	})

	return s
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
