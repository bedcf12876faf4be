package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"storeman/pkg/appcontext"
	"storeman/pkg/rules"
)

type RuleStore interface {
	Load() ([]rules.Rule, error)
	Save([]rules.Rule) error
}

// RulesHandler serves the rule set: GET returns the parsed rules, POST
// replaces the whole file (backing the previous one up first).
type RulesHandler struct {
	logger logrus.FieldLogger
	store  RuleStore
}

func NewRulesHandler(logger logrus.FieldLogger, store RuleStore) *RulesHandler {
	return &RulesHandler{
		logger: logger,
		store:  store,
	}
}

func (h *RulesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := appcontext.LoggerFromContext(h.logger, r.Context())

	switch r.Method {
	case http.MethodGet:
		h.list(w, logger)
	case http.MethodPost:
		h.save(w, r, logger)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *RulesHandler) list(w http.ResponseWriter, logger logrus.FieldLogger) {
	rr, err := h.store.Load()
	if err != nil {
		logger.WithError(err).Error("Unable to load rules")
		writeError(w, logger, http.StatusInternalServerError, "unable to load rules")
		return
	}

	writeJSON(w, logger, http.StatusOK, rr)
}

func (h *RulesHandler) save(w http.ResponseWriter, r *http.Request, logger logrus.FieldLogger) {
	var rr []rules.Rule

	if err := json.NewDecoder(r.Body).Decode(&rr); err != nil {
		writeError(w, logger, http.StatusBadRequest, "invalid rules payload")
		return
	}

	if err := h.store.Save(rr); err != nil {
		logger.WithError(err).Error("Unable to save rules")
		writeError(w, logger, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, logger, http.StatusOK, statusResponse{Status: "success"})
}
