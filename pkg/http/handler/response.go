package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, logger logrus.FieldLogger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithError(err).Error("Unable to encode response")
	}
}

func writeError(w http.ResponseWriter, logger logrus.FieldLogger, status int, message string) {
	writeJSON(w, logger, status, statusResponse{Status: "error", Message: message})
}
