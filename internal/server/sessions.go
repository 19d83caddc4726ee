package server

import (
	"net/http"

	sessiondomain "github.com/dermalens/dermalens/internal/session/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type sessionStartRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Path      string `json:"path"`
}

type sessionRequest struct {
	SessionID string `json:"session_id"`
	Path      string `json:"path"`
}

type sessionViewRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Path      string `json:"path"`
}

type sessionEndRequest struct {
	SessionID       string `json:"session_id"`
	DurationSeconds *int   `json:"duration_seconds"`
}

func (s *Server) StartSession(c *gin.Context) {
	var req sessionStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	start := sessiondomain.StartRequest{SessionID: req.SessionID, Path: req.Path}
	if req.UserID != "" {
		if userID, err := snowflake.ParseString(req.UserID); err == nil && userID != 0 {
			start.UserID = &userID
		}
	}

	heartbeat, err := s.sessionSvc.Start(c.Request.Context(), start)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": heartbeat})
}

func (s *Server) PingSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	heartbeat, err := s.sessionSvc.Ping(c.Request.Context(), req.SessionID, req.Path)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": heartbeat})
}

func (s *Server) RecordPageView(c *gin.Context) {
	var req sessionViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	view := sessiondomain.ViewRequest{
		SessionID: req.SessionID,
		Path:      req.Path,
	}
	if req.UserID != "" {
		if userID, err := snowflake.ParseString(req.UserID); err == nil && userID != 0 {
			view.UserID = &userID
		}
	}

	if err := s.sessionSvc.RecordView(c.Request.Context(), view); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) EndSession(c *gin.Context) {
	var req sessionEndRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.sessionSvc.End(c.Request.Context(), req.SessionID, req.DurationSeconds); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
