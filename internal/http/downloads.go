package httpserver

import (
	"net/http"
)

type downloadCounterResponse struct {
	TemplateID    string `json:"templateId"`
	DownloadCount int64  `json:"downloadCount"`
}

type incrementDownloadResponse struct {
	Success       bool  `json:"success"`
	DownloadCount int64 `json:"downloadCount"`
}

func (s *Server) handleListDownloads(w http.ResponseWriter, r *http.Request) {
	counters, err := s.repo.Downloads.List(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list downloads")
		s.respondInternalError(w)
		return
	}

	items := make([]downloadCounterResponse, 0, len(counters))
	for _, counter := range counters {
		items = append(items, downloadCounterResponse{
			TemplateID:    counter.TemplateID,
			DownloadCount: counter.Count,
		})
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleIncrementDownload(w http.ResponseWriter, r *http.Request) {
	templateID, err := decodeTemplateIDParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	count, err := s.repo.Downloads.Increment(r.Context(), templateID)
	if err != nil {
		s.logger.Error().Err(err).Str("template_id", templateID).Msg("increment download")
		s.respondInternalError(w)
		return
	}

	s.respondJSON(w, http.StatusOK, incrementDownloadResponse{
		Success:       true,
		DownloadCount: count,
	})
}
