package opshttp

import (
	"context"
	"net/http"
	"strconv"

	"vigil/internal/state"
	"vigil/internal/store/audit"

	"github.com/gin-gonic/gin"
)

// EngineReader exposes the tick loop's most recent view of state.
type EngineReader interface {
	LastState() *state.Record
}

// AuditReader lists recent tick entries.
type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]audit.Entry, error)
}

// KillSwitch toggles the trade halt remotely.
type KillSwitch interface {
	Engaged() bool
	Engage() error
	Clear() error
}

type Router struct {
	engine EngineReader
	audit  AuditReader
	kill   KillSwitch
}

func NewRouter(engine EngineReader, auditReader AuditReader, kill KillSwitch) *Router {
	return &Router{engine: engine, audit: auditReader, kill: kill}
}

func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/state", r.handleState)
	group.GET("/decisions", r.handleDecisions)
	group.GET("/breaker", r.handleBreaker)
	group.GET("/killswitch", r.handleKillSwitchStatus)
	group.POST("/killswitch", r.handleKillSwitchSet)
}

func (r *Router) handleState(c *gin.Context) {
	rec := r.engine.LastState()
	if rec == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no tick has run yet"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (r *Router) handleDecisions(c *gin.Context) {
	if r.audit == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "audit log disabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := r.audit.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"decisions": entries})
}

func (r *Router) handleBreaker(c *gin.Context) {
	rec := r.engine.LastState()
	if rec == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no tick has run yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"channel_failures":          rec.ChannelFailures,
		"channel_disabled_until_ms": rec.ChannelDisabledUntilMs,
	})
}

func (r *Router) handleKillSwitchStatus(c *gin.Context) {
	if r.kill == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "kill switch not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"engaged": r.kill.Engaged()})
}

func (r *Router) handleKillSwitchSet(c *gin.Context) {
	if r.kill == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "kill switch not configured"})
		return
	}
	var req struct {
		Engaged *bool `json:"engaged" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"engaged\": true|false}"})
		return
	}
	var err error
	if *req.Engaged {
		err = r.kill.Engage()
	} else {
		err = r.kill.Clear()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if got := r.kill.Engaged(); got != *req.Engaged {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "kill switch state did not apply", "engaged": got})
		return
	}
	c.JSON(http.StatusOK, gin.H{"engaged": r.kill.Engaged()})
}
