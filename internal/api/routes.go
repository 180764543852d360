package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"marginApp/internal/api/handlers"
	"marginApp/internal/api/middleware"
	"marginApp/internal/ports"
	"marginApp/internal/risk"
)

// Dependencies are the services the router is built from.
type Dependencies struct {
	Positions     handlers.PositionService
	Statistics    handlers.StatisticsProvider
	Logger        ports.Logger
	AdminIDs      []int64
	MaxMultiplier int
}

// SetupRoutes builds the HTTP router.
func SetupRoutes(deps Dependencies) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.Logging(deps.Logger))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	riskManager := risk.NewRiskManager(risk.RiskConfig{MaxLeverage: deps.MaxMultiplier})
	positions := handlers.NewPositionHandler(deps.Positions, deps.Logger, riskManager)
	margin := api.PathPrefix("/margin").Subrouter()
	// Literal segments are registered before /{id} so they win the match.
	margin.HandleFunc("/open", positions.Open).Methods(http.MethodPost)
	margin.HandleFunc("/close/{id}", positions.Close).Methods(http.MethodPost)
	margin.HandleFunc("/{id}", positions.Update).Methods(http.MethodPost)
	margin.HandleFunc("/{id}", positions.Get).Methods(http.MethodGet)

	dashboardHandler := handlers.NewDashboardHandler(deps.Statistics, deps.Logger)
	dashboard := api.PathPrefix("/dashboard").Subrouter()
	dashboard.Use(middleware.AdminOnly(middleware.NewAdminSet(deps.AdminIDs), deps.Logger))
	dashboard.HandleFunc("/statistic", dashboardHandler.Statistic).Methods(http.MethodGet)
	dashboard.HandleFunc("/liquidated", dashboardHandler.Liquidated).Methods(http.MethodGet)

	return router
}
