package router

import (
	"net/http"

	"github.com/BerylCAtieno/loanmitra/internal/auth"
	"github.com/BerylCAtieno/loanmitra/internal/handlers"
	"github.com/BerylCAtieno/loanmitra/internal/middleware"
	"github.com/BerylCAtieno/loanmitra/internal/services"
	"github.com/BerylCAtieno/loanmitra/internal/utils"

	"github.com/gorilla/mux"
)

type Deps struct {
	Documents       services.DocumentService
	Functions       services.FunctionService
	Auth            *auth.Service
	MaxFileSize     int64
	CORSAllowOrigin string
	Logger          *utils.Logger
}

func NewRouter(d Deps) http.Handler {
	r := mux.NewRouter()
	logger := d.Logger

	// Middlewares
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))

	docHandler := handlers.NewDocumentHandler(d.Documents, d.MaxFileSize, logger)
	fnHandler := handlers.NewFunctionHandler(d.Functions, logger)
	authHandler := handlers.NewAuthHandler(d.Auth, logger)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	// Sign-in flow is public
	api.HandleFunc("/auth/{provider}/url", authHandler.AuthURL).Methods(http.MethodGet)
	api.HandleFunc("/auth/{provider}/start", authHandler.Start).Methods(http.MethodGet)
	api.HandleFunc("/auth/{provider}/callback", authHandler.Callback).Methods(http.MethodGet)

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.Auth(d.Auth))

	protected.HandleFunc("/auth/me", authHandler.Me).Methods(http.MethodGet)

	protected.HandleFunc("/storage/{bucket}/{path:.+}", docHandler.UploadObject).Methods(http.MethodPut)
	protected.HandleFunc("/storage/{bucket}/{path:.+}", docHandler.DownloadObject).Methods(http.MethodGet)

	protected.HandleFunc("/documents", docHandler.CreateDocument).Methods(http.MethodPost)
	protected.HandleFunc("/documents", docHandler.ListDocuments).Methods(http.MethodGet)
	protected.HandleFunc("/documents/{id}", docHandler.GetDocument).Methods(http.MethodGet)
	protected.HandleFunc("/documents/{id}", docHandler.UpdateDocument).Methods(http.MethodPatch)

	protected.HandleFunc("/functions/process-document", fnHandler.ProcessDocument).Methods(http.MethodPost)
	protected.HandleFunc("/functions/chat-assistant", fnHandler.ChatAssistant).Methods(http.MethodPost)
	protected.HandleFunc("/functions/translate-text", fnHandler.TranslateText).Methods(http.MethodPost)

	// CORS wraps the router so preflights are answered even for routes that
	// do not register OPTIONS.
	return middleware.CORS(d.CORSAllowOrigin)(r)
}
