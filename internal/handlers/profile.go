package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/affectly/affectly-backend/internal/models"
	"github.com/affectly/affectly-backend/internal/services"
)

type ProfileResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Profile *models.Profile `json:"profile,omitempty"`
}

type CreateProfileRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type UpdateProfileRequest struct {
	FullName string `json:"full_name"`
}

// GetProfile returns the authenticated user's profile.
func GetProfile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, ok := requireAuth(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(ProfileResponse{Success: false, Message: "Authentication required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	profile, err := store.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(ProfileResponse{Success: false, Message: "Profile not found"})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ProfileResponse{Success: false, Message: "Failed to fetch profile"})
		return
	}

	json.NewEncoder(w).Encode(ProfileResponse{Success: true, Profile: profile})
}

// CreateProfile creates the profile row for a newly provisioned identity.
// The user ID comes from the session; tier always starts at free.
func CreateProfile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, ok := requireAuth(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(ProfileResponse{Success: false, Message: "Authentication required"})
		return
	}

	var req CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ProfileResponse{Success: false, Message: "Invalid request body"})
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ProfileResponse{Success: false, Message: "A valid email is required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	profile := &models.Profile{
		UserID:           userID,
		Email:            req.Email,
		FullName:         strings.TrimSpace(req.FullName),
		SubscriptionTier: models.TierFree,
	}
	if err := store.CreateProfile(ctx, profile); err != nil {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(ProfileResponse{Success: false, Message: "Profile already exists or could not be created"})
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(ProfileResponse{Success: true, Message: "Profile created"})
}

// UpdateProfile updates the display name. The subscription tier is not
// settable here; only a verified payment changes it.
func UpdateProfile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, ok := requireAuth(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(ProfileResponse{Success: false, Message: "Authentication required"})
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ProfileResponse{Success: false, Message: "Invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := store.UpdateProfileName(ctx, userID, strings.TrimSpace(req.FullName)); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(ProfileResponse{Success: false, Message: "Profile not found"})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ProfileResponse{Success: false, Message: "Failed to update profile"})
		return
	}

	json.NewEncoder(w).Encode(ProfileResponse{Success: true, Message: "Profile updated"})
}

// GetFeatures returns the feature set the user's tier unlocks; the frontend
// uses it to decide what to render and whether export is offered.
func GetFeatures(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, ok := requireAuth(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "Authentication required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	profile, err := store.GetProfile(ctx, userID)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "Profile not found"})
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"tier":     profile.SubscriptionTier,
		"features": entitlements.VisibleFeatures(profile),
	})
}
