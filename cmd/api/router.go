package api

import (
	"bufio"
	"net/http"
	"os"

	"replydesk/internal/mail/usecase"
	"replydesk/pkg/config"

	"github.com/gin-gonic/gin"
)

// logTailLines is how many trailing log lines /api/logs returns.
const logTailLines = 100

// SetupRoutes wires the read-only API. It is a pure projection over the
// store; it plays no part in threading or ingestion.
func SetupRoutes(r *gin.Engine, emailUc usecase.EmailUsecase, cfg *config.Config) {
	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// All stored messages, newest first.
		api.GET("/emails", func(c *gin.Context) {
			emails, err := emailUc.ListEmails()
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"emails": emails, "total": len(emails)})
		})

		// Most recent service log lines.
		api.GET("/logs", func(c *gin.Context) {
			lines, err := tailFile(cfg.LogFile, logTailLines)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "log file not found"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"logs": lines})
		})
	}
}

func tailFile(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
