package handler

import (
	"net/http"
	"time"

	"sendit/messenger/internal/pkg/httputils"
)

type PongResponse struct {
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Ping
// @Summary Liveness probe
// @Tags system
// @Produce json
// @Success 200 {object} PongResponse
// @Router /ping [get]
func Ping(w http.ResponseWriter, r *http.Request) {
	httputils.ResponseJSON(w, http.StatusOK, PongResponse{Message: "Pong", Time: time.Now().UTC()})
}
