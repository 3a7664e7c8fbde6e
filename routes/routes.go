package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ExCiteS/geokey-epicollect/handlers"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// =====================================================
	// EpiCollect API (consumed by the mobile client)
	// =====================================================
	api := r.PathPrefix("/api/epicollect").Subrouter()
	api.HandleFunc("/projects/{project_id:[0-9]+}.xml", handlers.GetProjectForm).Methods("GET")
	api.HandleFunc("/projects/{project_id:[0-9]+}/upload/", handlers.UploadData).Methods("POST")
	api.HandleFunc("/projects/{project_id:[0-9]+}/download/", handlers.DownloadData).Methods("GET")

	// Stored attachments
	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir("./uploads"))),
	)

	return r
}
