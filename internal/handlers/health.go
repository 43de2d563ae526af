package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-dev/taskboard/db"
)

func HealthCheck(c *gin.Context) {
	database := "up"

	if sqlDB, err := db.DB.DB(); err != nil || sqlDB.Ping() != nil {
		database = "down"
	}

	status := http.StatusOK
	if database == "down" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":    "ok",
		"database":  database,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
