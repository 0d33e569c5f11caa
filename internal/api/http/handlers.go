// Package http exposes the coordinator's operations to UI collaborators
// over REST.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/salih12s/trucksbus-pwa/internal/coordinator"
	"github.com/salih12s/trucksbus-pwa/internal/platform"
	"github.com/salih12s/trucksbus-pwa/internal/store"
	"github.com/salih12s/trucksbus-pwa/internal/worker"
)

// Handlers contains all REST handlers.
type Handlers struct {
	coord   *coordinator.Coordinator
	runtime *worker.Runtime
}

// NewHandlers creates a handler set. runtime may be nil when the host
// carries no local worker.
func NewHandlers(coord *coordinator.Coordinator, runtime *worker.Runtime) *Handlers {
	return &Handlers{coord: coord, runtime: runtime}
}

// Root identifies the service.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "TrucksBus Offline Coordinator",
	})
}

// Health reports liveness plus the capability set.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"capabilities": h.coord.Probe().Snapshot(),
		"registration": h.coord.Status().Registration,
	})
}

// Status returns the observable coordinator snapshot.
func (h *Handlers) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.coord.Status())
}

// Register installs the background worker.
func (h *Handlers) Register(c *gin.Context) {
	ok := h.coord.Register(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"registered": ok})
}

// Unregister removes the background worker.
func (h *Handlers) Unregister(c *gin.Context) {
	ok := h.coord.Unregister(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"unregistered": ok})
}

// Update applies a waiting worker update.
func (h *Handlers) Update(c *gin.Context) {
	h.coord.Update(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type installOfferRequest struct {
	Outcome string `json:"outcome" binding:"required,oneof=accepted dismissed"`
}

// CaptureInstallOffer feeds a host-issued install offer into the
// coordinator. The offer resolves to the outcome the host reported.
func (h *Handlers) CaptureInstallOffer(c *gin.Context) {
	var req installOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accepted := req.Outcome == "accepted"
	h.coord.CaptureInstallOffer(platform.InstallOffer{
		CapturedAt: time.Now(),
		Prompt: func(ctx context.Context) (bool, error) {
			return accepted, nil
		},
	})
	c.JSON(http.StatusAccepted, gin.H{"captured": true})
}

// Install consumes the pending install offer.
func (h *Handlers) Install(c *gin.Context) {
	accepted := h.coord.Install(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"accepted": accepted})
}

// RequestNotifications prompts for notification permission.
func (h *Handlers) RequestNotifications(c *gin.Context) {
	granted := h.coord.RequestNotifications(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"granted":    granted,
		"permission": h.coord.Status().Permission,
	})
}

// Persist durably stores a domain write for later replay.
func (h *Handlers) Persist(c *gin.Context) {
	collection := c.Param("collection")

	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.coord.Persist(c.Request.Context(), collection, payload)
	switch {
	case errors.Is(err, store.ErrUnsupported):
		c.JSON(http.StatusNotImplemented, gin.H{"error": "durable storage unsupported"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusCreated, gin.H{"queued": true, "collection": collection})
	}
}

// RegisterSync idempotently registers a deferred sync tag.
func (h *Handlers) RegisterSync(c *gin.Context) {
	tag := c.Param("tag")
	if err := h.coord.RegisterDeferredSync(c.Request.Context(), tag); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tag": tag})
}

type deployRequest struct {
	Version string `json:"version" binding:"required"`
}

// DeployWorker ships a new worker script version, as the host would
// when the application bundle is redeployed.
func (h *Handlers) DeployWorker(c *gin.Context) {
	if h.runtime == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "no local worker runtime"})
		return
	}

	var req deployRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.runtime.Deploy(req.Version)
	c.JSON(http.StatusAccepted, gin.H{"version": req.Version})
}
