package handlers

import (
	"github.com/sirupsen/logrus"

	"pnodewatch/services"
)

// Handler bundles the services the HTTP layer reads from.
type Handler struct {
	Poller  *services.Poller
	History *services.HistoryTracker
	Store   *services.Store
	Mongo   *services.MongoDBService
	Logger  *logrus.Logger
}

func NewHandler(
	poller *services.Poller,
	history *services.HistoryTracker,
	store *services.Store,
	mongo *services.MongoDBService,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		Poller:  poller,
		History: history,
		Store:   store,
		Mongo:   mongo,
		Logger:  logger,
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}
