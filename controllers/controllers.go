package controllers

import (
	"net/http"
	"strings"

	"duomatch_server/utils"
)

// HealthCheckHandler provides a basic health check
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// WelcomeHandler provides a welcome message
func WelcomeHandler(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "Welcome to the server! This is the duo matching API."})
}

// MethodNotAllowedHandler answers 405 with the Allow header set to methods
func MethodNotAllowedHandler(methods ...string) http.Handler {
	allow := strings.Join(methods, ", ")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allow)
		utils.WriteJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}
