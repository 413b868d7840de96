package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/proflow/proflow/internal/audit"
	"github.com/proflow/proflow/internal/model"
	"github.com/proflow/proflow/internal/notify"
	"github.com/proflow/proflow/internal/sync"
)

// userIDHeader carries the caller identity. There is no session layer; the
// deployment fronts this API with its own authentication.
const userIDHeader = "X-User-ID"

// handleEmailSync triggers one sync run. Credentials in the request body
// override the caller's stored settings for this run only.
func (s *Server) handleEmailSync(c *gin.Context) {
	callerID := c.GetHeader(userIDHeader)

	var override *model.EmailCredentials
	var body model.EmailCredentials
	if err := c.ShouldBindJSON(&body); err == nil {
		override = &body
	} else if !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	result, err := s.sync.Sync(c.Request.Context(), callerID, override)
	if err != nil {
		s.renderSyncError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"processed": result.Processed,
		"created":   result.Count,
		"tickets":   result.Tickets,
	})
}

// renderSyncError maps the sync error taxonomy onto HTTP status codes.
func (s *Server) renderSyncError(c *gin.Context, err error) {
	syncErr, ok := sync.AsSyncError(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to sync emails",
			"details": err.Error(),
		})
		return
	}

	status := http.StatusInternalServerError
	switch syncErr.Kind {
	case sync.KindUnauthorized:
		status = http.StatusUnauthorized
	case sync.KindConfiguration:
		status = http.StatusBadRequest
	}

	payload := gin.H{"error": syncErr.Message}
	if syncErr.Err != nil {
		payload["details"] = syncErr.Err.Error()
	}
	c.JSON(status, payload)
}

// handleGetTicket returns one ticket with its notification history.
func (s *Server) handleGetTicket(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	ticket, err := s.store.GetTicketByID(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ticket == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
		return
	}

	notifications, err := s.store.GetNotificationsForTicket(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ticket":        ticket,
		"notifications": notifications,
	})
}

// ticketUpdateRequest is a partial update: only the fields present in the
// body are applied.
type ticketUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	StatusID    *string `json:"status_id"`
	Priority    *string `json:"priority"`
	AssigneeID  *string `json:"assignee_id"`
}

// handleUpdateTicket applies a partial update. When the update moves the
// ticket into the terminal status, the reporter is emailed; a failed send
// still returns success, with a warning.
func (s *Server) handleUpdateTicket(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	actorID := c.GetHeader(userIDHeader)
	if actorID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	actor, err := s.store.GetUserByID(ctx, actorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if actor == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req ticketUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	ticket, err := s.store.GetTicketByID(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ticket == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
		return
	}

	previousStatusID := ticket.StatusID

	if req.Title != nil {
		ticket.Title = *req.Title
	}
	if req.Description != nil {
		ticket.Description = *req.Description
	}
	if req.Priority != nil {
		ticket.Priority = *req.Priority
	}
	if req.AssigneeID != nil {
		ticket.AssigneeID = *req.AssigneeID
	}
	if req.StatusID != nil {
		status, err := s.store.GetStatusByID(ctx, *req.StatusID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if status == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status"})
			return
		}
		ticket.StatusID = status.ID
	}

	if err := s.store.UpdateTicket(ctx, *ticket); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.audit.Record(audit.KindTicketUpdate, actorID, "ticket updated",
		map[string]string{"ticket_id": ticket.ID})

	resolved, err := s.becameResolved(c, previousStatusID, ticket.StatusID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if resolved {
		if err := s.notifier.NotifyResolved(ctx, actorID, *ticket); err != nil {
			var sendErr *notify.SendFailedError
			if errors.As(err, &sendErr) {
				c.JSON(http.StatusOK, gin.H{
					"success": true,
					"ticket":  ticket,
					"warning": "Ticket updated, but failed to send email notification.",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "ticket": ticket})
}

// becameResolved reports whether the status change entered the terminal
// status. Already-resolved tickets do not re-notify on unrelated edits.
func (s *Server) becameResolved(c *gin.Context, previousID, currentID string) (bool, error) {
	if previousID == currentID {
		return false, nil
	}
	status, err := s.store.GetStatusByID(c.Request.Context(), currentID)
	if err != nil {
		return false, err
	}
	return status != nil && status.Name == model.StatusNameDone, nil
}

// handleGetEmailSettings returns the caller's mailbox configuration with
// passwords blanked. Secrets never leave the keyring through this API.
func (s *Server) handleGetEmailSettings(c *gin.Context) {
	callerID := c.GetHeader(userIDHeader)
	if callerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	stored, err := s.settings.Get(c.Request.Context(), callerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if stored == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Email settings not configured"})
		return
	}

	stored.IMAP.Pass = ""
	stored.SMTP.Pass = ""
	c.JSON(http.StatusOK, stored)
}

// handleSaveEmailSettings stores the caller's mailbox configuration. Empty
// password fields keep the previously stored secrets.
func (s *Server) handleSaveEmailSettings(c *gin.Context) {
	callerID := c.GetHeader(userIDHeader)
	if callerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	caller, err := s.store.GetUserByID(c.Request.Context(), callerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if caller == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var body model.EmailSettings
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := s.settings.Save(c.Request.Context(), callerID, body); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// handleAudit returns recent pipeline activity, newest first.
func (s *Server) handleAudit(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	c.JSON(http.StatusOK, gin.H{"entries": s.audit.Recent(limit)})
}
