package rest

import (
	"net/http"
	"time"

	"github.com/dfryer1193/peakblog/api"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Health reports whether posts can be served and when the index was last rebuilt.
func (s *Server) Health(c *gin.Context) {
	summaries, err := s.store.ListAllPosts(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Health check failed")
		c.JSON(http.StatusServiceUnavailable, api.Health{Status: "unavailable"})
		return
	}

	resp := api.Health{
		Status: "ok",
		Posts:  len(summaries),
	}
	if s.lastSynced != nil {
		synced, err := s.lastSynced(c.Request.Context())
		if err != nil {
			log.Warn().Err(err).Msg("Failed to read last sync time")
		} else if !synced.IsZero() {
			resp.LastSynced = synced.UTC().Format(time.RFC3339)
		}
	}
	c.JSON(http.StatusOK, resp)
}
