package http

import (
	"net/http"
	"time"

	httpmw "github.com/cwrk-planet/bowling-server/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Deps struct {
	Handler        *Handler
	WS             http.HandlerFunc
	AllowedOrigins []string
}

func NewRouter(d Deps) http.Handler {
	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(httpmw.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", httpmw.HeaderRequestID},
		ExposedHeaders: []string{httpmw.HeaderRequestID},
		MaxAge:         300,
	}))

	// WS endpoint, outside the access log and timeout wrappers
	r.Get("/ws", d.WS)

	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.AccessLog)
		pr.Use(middlewareChi.Timeout(15 * time.Second))

		pr.Route("/rooms", func(rm chi.Router) {
			rm.Get("/", d.Handler.ListRooms)
			rm.Route("/{code}", func(rr chi.Router) {
				rr.Get("/", d.Handler.GetRoom)
				rr.Get("/events", d.Handler.GetRoomEvents)
			})
		})
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
