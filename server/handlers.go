package server

import (
	"encoding/json"
	"net/http"

	"MoisHub/config"
	"MoisHub/core/ratelimit"
	"MoisHub/core/smule"
	"MoisHub/repository"
)

// APIHandler 处理所有API请求
type APIHandler struct {
	trackRepo  repository.TrackRepository
	userRepo   repository.UserRepository
	reviewRepo repository.ReviewRepository
	adminRepo  repository.AdminRepository
	limiter    *ratelimit.Limiter
	smule      *smule.Client
	cfg        *config.Config
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(
	trackRepo repository.TrackRepository,
	userRepo repository.UserRepository,
	reviewRepo repository.ReviewRepository,
	adminRepo repository.AdminRepository,
	limiter *ratelimit.Limiter,
	smuleClient *smule.Client,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		trackRepo:  trackRepo,
		userRepo:   userRepo,
		reviewRepo: reviewRepo,
		adminRepo:  adminRepo,
		limiter:    limiter,
		smule:      smuleClient,
		cfg:        cfg,
	}
}

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError sends a JSON error body so clients never have to parse plain text.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
