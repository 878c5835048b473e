package server

import (
	"bytes"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// registerRoutes sets up every API route and the static asset fallback.
func registerRoutes(router *gin.Engine, h *handlers) error {
	api := router.Group("/api")

	api.GET("/villages", h.listVillages)
	api.POST("/villages", h.createVillage)
	api.GET("/villages/:id", h.getVillage)
	api.POST("/villages/:id/advance", h.advanceVillage)

	api.GET("/requirements", h.listRequirements)
	api.POST("/requirements", h.createRequirement)
	api.GET("/requirements/:id", h.getRequirement)
	api.POST("/requirements/:id/advance", h.advanceRequirement)
	api.POST("/issues", h.createIssue)

	api.GET("/households", h.listHouseholds)
	api.POST("/households", h.createHousehold)
	api.GET("/surveys", h.listSurveys)
	api.POST("/surveys", h.createSurvey)
	api.GET("/projects", h.listProjects)
	api.POST("/assessments", h.createAssessment)

	api.GET("/stats", h.stats)
	api.GET("/activity", h.activity)
	api.GET("/export/map.json", h.exportJSON)
	api.GET("/export/map.xlsx", h.exportXLSX)

	api.GET("/session", h.session)
	api.POST("/session/login", h.login)
	api.POST("/session/logout", h.logout)
	api.POST("/session/village", h.selectVillage)
	api.GET("/drafts/:form", h.loadDraft)
	api.PUT("/drafts/:form", h.saveDraft)

	api.POST("/submissions", h.submission)
	api.POST("/push", h.push)
	api.GET("/cache", h.cacheStatus)
	api.GET("/events", h.eventStream)

	static, err := fs.Sub(webFS, "web")
	if err != nil {
		return err
	}
	router.NoRoute(serveStatic(static))
	return nil
}

// serveStatic serves embedded files by exact path; "/" is index.html.
func serveStatic(static fs.FS) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		name := strings.TrimPrefix(path.Clean(c.Request.URL.Path), "/")
		if name == "" {
			name = "index.html"
		}
		data, err := fs.ReadFile(static, name)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		http.ServeContent(c.Writer, c.Request, name, time.Time{}, bytes.NewReader(data))
	}
}
