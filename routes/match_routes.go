package routes

import (
	"net/http"

	"duomatch_server/controllers"

	"github.com/gorilla/mux"
)

type matchRoute struct {
	path    string
	method  string
	handler http.HandlerFunc
}

// RegisterMatchRoutes sets up routes for the weekly matches under /api/match
func RegisterMatchRoutes(r *mux.Router, controller *controllers.MatchController) {
	matchRouter := r.PathPrefix("/api/match").Subrouter()

	matchRoutes := []matchRoute{
		{"/run", "POST", controller.RunMatching},
		{"/current", "GET", controller.GetCurrentMatch},
		{"/history", "GET", controller.GetMatchHistory},
		{"/week", "GET", controller.GetWeekMatches},
		{"/analysis", "GET", controller.GetAnalysis},
		{"/status", "GET", controller.GetStatus},
		{"/archive", "GET", controller.GetArchiveURL},
	}

	var paths []string
	allowed := make(map[string][]string)
	for _, route := range matchRoutes {
		matchRouter.HandleFunc(route.path, route.handler).Methods(route.method)
		if _, seen := allowed[route.path]; !seen {
			paths = append(paths, route.path)
		}
		allowed[route.path] = append(allowed[route.path], route.method)
	}

	// A later route's prefix match resets mux's method mismatch inside a
	// subrouter, so each known path answers 405 itself.
	for _, path := range paths {
		matchRouter.Handle(path, controllers.MethodNotAllowedHandler(allowed[path]...))
	}
}
