package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appconfig "github.com/eyzhang1221/unity-game-controllers/internal/config"
	"github.com/eyzhang1221/unity-game-controllers/internal/protocol"
	"github.com/eyzhang1221/unity-game-controllers/internal/tasks"
	"github.com/eyzhang1221/unity-game-controllers/internal/ws"
	"github.com/eyzhang1221/unity-game-controllers/resources"
)

// NewRouter executes the newRouter function.
func NewRouter(cfg appconfig.Config, wsHandler *ws.Handler, taskRepo tasks.Repo, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/game-ws", func(c *gin.Context) {
		wsHandler.Handle(c.Writer, c.Request)
	})

	api := router.Group("/api")

	api.GET("/profiles", func(c *gin.Context) {
		profiles, err := appconfig.ScanGameProfiles(cfg.GameProfilesDir)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"profiles": profiles})
	})

	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": wsHandler.Rooms()})
	})

	api.GET("/sessions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sessions": wsHandler.Sessions()})
	})

	api.GET("/sessions/:uid", func(c *gin.Context) {
		info, ok := wsHandler.Session(c.Param("uid"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no such session"})
			return
		}
		c.JSON(http.StatusOK, info)
	})

	api.DELETE("/sessions/:uid", func(c *gin.Context) {
		if !wsHandler.CloseSession(c.Param("uid")) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no such session"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"closed": true})
	})

	api.POST("/sessions/:uid/command", func(c *gin.Context) {
		var req struct {
			Command    int    `json:"command"`
			Properties string `json:"properties"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		if req.Command < math.MinInt8 || req.Command > math.MaxInt8 {
			c.JSON(http.StatusBadRequest, gin.H{"error": protocol.ErrUnknownCommand.Error()})
			return
		}
		err := wsHandler.SendCommand(c.Param("uid"), protocol.CommandCode(req.Command), req.Properties)
		if errors.Is(err, protocol.ErrUnknownCommand) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sent": true})
	})

	api.GET("/tasks", func(c *gin.Context) {
		scene := c.Query("scene")
		if scene == "" {
			scene = cfg.DefaultScene
		}
		list, err := taskRepo.ListByScene(scene)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"tasks": list})
	})

	api.POST("/tasks", func(c *gin.Context) {
		var task tasks.Task
		if err := c.ShouldBindJSON(&task); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		if task.Word == "" || task.Scene == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "word and scene are required"})
			return
		}
		if err := taskRepo.Save(&task); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, task)
	})

	api.DELETE("/tasks/:id", func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
			return
		}
		if err := taskRepo.Delete(id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	})

	mountResources(router, logger)

	return router
}

// mountResources serves the embedded game resources read-only.
func mountResources(router *gin.Engine, logger *zap.Logger) {
	embeddedRoot, err := resources.Subdir(".")
	if err != nil {
		if logger != nil {
			logger.Warn("embedded resources unavailable", zap.Error(err))
		}
		return
	}
	router.StaticFS("/res", http.FS(embeddedRoot))
	if logger != nil {
		logger.Info("serving embedded resources", zap.String("route", "/res"))
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		if logger == nil {
			return
		}
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("status", c.Writer.Status()),
			zap.Int("bytes", c.Writer.Size()),
			zap.Duration("latency", latency),
			zap.String("user_agent", c.Request.UserAgent()),
		)
	}
}
