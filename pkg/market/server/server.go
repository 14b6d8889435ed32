package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	market_data "github.com/solmarket/marketplace-server/pkg/market/data"
)

const (
	statsCacheTTL = 30 * time.Second
)

// Server exposes the indexed marketplace state over a REST API.
type Server struct {
	log   *logrus.Entry
	data  market_data.Provider
	cache *cache.Cache
}

func NewServer(data market_data.Provider) *Server {
	return &Server{
		log:   logrus.StandardLogger().WithField("type", "market/server"),
		data:  data,
		cache: cache.New(statsCacheTTL, 5*time.Minute),
	}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestMiddleware)

	r.HandleFunc("/health", s.handleHealth).Methods("GET")

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/marketplaces", s.handleGetMarketplaces).Methods("GET")
	v1.HandleFunc("/marketplaces/{address}", s.handleGetMarketplace).Methods("GET")
	v1.HandleFunc("/listings", s.handleGetListings).Methods("GET")
	v1.HandleFunc("/listings/{address}", s.handleGetListing).Methods("GET")
	v1.HandleFunc("/sales", s.handleGetSales).Methods("GET")
	v1.HandleFunc("/stats", s.handleGetStats).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	return r
}

// requestMiddleware tags every request with an id and logs its outcome.
func (s *Server) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestId := uuid.New().String()
		w.Header().Set("X-Request-Id", requestId)

		start := time.Now()
		next.ServeHTTP(w, r)

		s.log.WithFields(logrus.Fields{
			"request_id": requestId,
			"method":     r.Method,
			"path":       r.URL.Path,
			"duration":   time.Since(start),
		}).Debug("handled request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJson(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJson(w, status, map[string]string{"error": message})
}
