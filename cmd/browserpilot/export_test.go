package main

import (
	"log/slog"
	"net/http"

	"github.com/m-mizutani/browserpilot"
)

// Exported constructors for testing
var NewServer = newServer
var NewWSHub = newWSHub
var WithAddr = withAddr
var StatusForError = statusForError
var LoadConfig = loadConfig

type Config = config

// Validate exposes config validation for testing.
func (c *config) Validate() error {
	return c.validate()
}

// Handler returns the server's HTTP handler for testing.
func (s *server) Handler() http.Handler {
	return s.handler()
}

// NewTestServer wires a server with a discard logger for testing.
func NewTestServer(manager *browserpilot.Manager) *server {
	logger := slog.New(slog.DiscardHandler)
	return newServer(manager, newWSHub(logger), logger)
}
