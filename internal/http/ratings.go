package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/PromptVault/ratings-api/internal/repository"
)

const (
	maxRequestBody  = 1 << 20 // 1 MiB
	recentCommentsN = 20
)

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type templateStatsResponse struct {
	TemplateID    string  `json:"templateId"`
	AverageRating float64 `json:"averageRating"`
	RatingCount   int64   `json:"ratingCount"`
	DownloadCount int64   `json:"downloadCount"`
}

type recentRatingResponse struct {
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type templateDetailResponse struct {
	TemplateID    string                 `json:"templateId"`
	AverageRating float64                `json:"averageRating"`
	RatingCount   int64                  `json:"ratingCount"`
	UserRating    *int                   `json:"userRating"`
	UserComment   *string                `json:"userComment"`
	RecentRatings []recentRatingResponse `json:"recentRatings"`
}

type submitRatingRequest struct {
	TemplateID string  `json:"templateId" validate:"required"`
	UserHash   string  `json:"userHash" validate:"required"`
	Rating     int     `json:"rating" validate:"required,min=1,max=5"`
	Comment    *string `json:"comment"`
}

type submitRatingResponse struct {
	Success       bool    `json:"success"`
	AverageRating float64 `json:"averageRating"`
	RatingCount   int64   `json:"ratingCount"`
}

func (s *Server) handleListStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.repo.Ratings.ListStats(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list template stats")
		s.respondInternalError(w)
		return
	}

	items := make([]templateStatsResponse, 0, len(stats))
	for _, row := range stats {
		items = append(items, templateStatsResponse{
			TemplateID:    row.TemplateID,
			AverageRating: row.Average,
			RatingCount:   row.Count,
			DownloadCount: row.Downloads,
		})
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleTemplateDetail(w http.ResponseWriter, r *http.Request) {
	templateID, err := decodeTemplateIDParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	agg, err := s.repo.Ratings.Aggregate(r.Context(), templateID)
	if err != nil {
		s.logger.Error().Err(err).Str("template_id", templateID).Msg("fetch aggregate")
		s.respondInternalError(w)
		return
	}

	resp := templateDetailResponse{
		TemplateID:    templateID,
		AverageRating: agg.Average,
		RatingCount:   agg.Count,
		RecentRatings: make([]recentRatingResponse, 0, recentCommentsN),
	}

	if userHash := strings.TrimSpace(r.URL.Query().Get("userHash")); userHash != "" {
		own, err := s.repo.Ratings.Get(r.Context(), templateID, userHash)
		switch {
		case err == nil:
			resp.UserRating = &own.Value
			resp.UserComment = own.Comment
		case errors.Is(err, repository.ErrNotFound):
			// no prior rating, fields stay null
		default:
			s.logger.Error().Err(err).Str("template_id", templateID).Msg("fetch user rating")
			s.respondInternalError(w)
			return
		}
	}

	recent, err := s.repo.Ratings.RecentComments(r.Context(), templateID, recentCommentsN)
	if err != nil {
		s.logger.Error().Err(err).Str("template_id", templateID).Msg("list recent comments")
		s.respondInternalError(w)
		return
	}
	for _, rating := range recent {
		comment := ""
		if rating.Comment != nil {
			comment = *rating.Comment
		}
		resp.RecentRatings = append(resp.RecentRatings, recentRatingResponse{
			Rating:    rating.Value,
			Comment:   comment,
			UpdatedAt: rating.UpdatedAt,
		})
	}

	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitRating(w http.ResponseWriter, r *http.Request) {
	var req submitRatingRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		// The contract treats an unparseable body like any other unexpected
		// failure: fixed generic body, details only in the log.
		s.logger.Error().Err(err).Msg("decode rating payload")
		s.respondInternalError(w)
		return
	}

	req.TemplateID = strings.TrimSpace(req.TemplateID)
	req.UserHash = strings.TrimSpace(req.UserHash)

	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	agg, err := s.repo.Ratings.Submit(r.Context(), repository.RatingSubmitParams{
		TemplateID: req.TemplateID,
		UserHash:   req.UserHash,
		Value:      req.Rating,
		Comment:    normalizeComment(req.Comment),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("template_id", req.TemplateID).Msg("submit rating")
		s.respondInternalError(w)
		return
	}

	s.respondJSON(w, http.StatusOK, submitRatingResponse{
		Success:       true,
		AverageRating: agg.Average,
		RatingCount:   agg.Count,
	})
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid request payload"
	}
	fe := fieldErrs[0]
	switch fe.StructField() {
	case "TemplateID":
		return "templateId is required"
	case "UserHash":
		return "userHash is required"
	case "Rating":
		return "rating must be an integer between 1 and 5"
	default:
		return "invalid request payload"
	}
}

func normalizeComment(ptr *string) *string {
	if ptr == nil {
		return nil
	}
	val := strings.TrimSpace(*ptr)
	if val == "" {
		return nil
	}
	return &val
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}

func decodeTemplateIDParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "templateID")
	if raw == "" {
		return "", errors.New("missing templateId parameter")
	}
	templateID, err := url.PathUnescape(raw)
	if err != nil || strings.TrimSpace(templateID) == "" {
		return "", errors.New("invalid templateId parameter")
	}
	return strings.TrimSpace(templateID), nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Error().Err(err).Msg("encode response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, errorResponse{Error: message})
}

func (s *Server) respondInternalError(w http.ResponseWriter) {
	s.respondError(w, http.StatusInternalServerError, "Internal server error")
}
