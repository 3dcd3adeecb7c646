package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Team Insights API
// @version 1.0
// @description Team activity statistics, timelines and sync control over GitHub data
// @contact.name API Support
// @contact.url http://github.com/Kamar-Folarin
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// SetupRouter configures the API routes
func SetupRouter(h *Handler, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	// API documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// @Summary Health check
	// @Tags health
	// @Produce json
	// @Success 200 {object} HealthResponse
	// @Router /healthz [get]
	r.GET("/healthz", h.Health)

	v1 := r.Group("/api/v1")
	{
		members := v1.Group("/members")
		{
			// @Summary List members
			// @Description Issue, task and code statistics for every team member
			// @Tags members
			// @Produce json
			// @Success 200 {array} models.MemberDetailedStats
			// @Router /members [get]
			members.GET("", h.ListMembers)

			// @Summary Get member
			// @Tags members
			// @Produce json
			// @Param login path string true "GitHub login"
			// @Success 200 {object} models.MemberDetailedStats
			// @Failure 404 {object} ErrorResponse
			// @Router /members/{login} [get]
			members.GET("/:login", h.GetMember)
		}

		// @Summary Overall statistics
		// @Tags stats
		// @Produce json
		// @Success 200 {object} models.OverallStats
		// @Failure 404 {object} ErrorResponse "No snapshot loaded yet"
		// @Router /stats/overall [get]
		v1.GET("/stats/overall", h.GetOverallStats)

		repositories := v1.Group("/repositories")
		{
			// @Summary List repositories
			// @Description Statistics and 7-day activity for every repository
			// @Tags repositories
			// @Produce json
			// @Success 200 {array} models.RepositoryStats
			// @Router /repositories [get]
			repositories.GET("", h.ListRepositories)

			// @Summary Repository timeline
			// @Tags repositories
			// @Produce json
			// @Param name path string true "Repository name"
			// @Success 200 {object} models.RepositoryTimeline
			// @Failure 404 {object} ErrorResponse
			// @Router /repositories/{name}/timeline [get]
			repositories.GET("/:name/timeline", h.GetRepositoryTimeline)
		}

		projects := v1.Group("/projects")
		{
			// @Summary List projects
			// @Tags projects
			// @Produce json
			// @Param q query string false "Search title and description"
			// @Param state query string false "open or closed, comma separated"
			// @Param sort query string false "Sort key" Enums(name,progress,start_date,newest,oldest,most_tasks,most_completed)
			// @Param page query int false "Page" default(1)
			// @Param page_size query int false "Page size" default(10)
			// @Success 200 {object} ProjectPage
			// @Failure 400 {object} ErrorResponse
			// @Router /projects [get]
			projects.GET("", h.ListProjects)

			// @Summary Get project
			// @Tags projects
			// @Produce json
			// @Param number path int true "Project number"
			// @Success 200 {object} models.ProjectStats
			// @Failure 400 {object} ErrorResponse
			// @Failure 404 {object} ErrorResponse
			// @Router /projects/{number} [get]
			projects.GET("/:number", h.GetProject)

			// @Summary Project timeline
			// @Tags projects
			// @Produce json
			// @Param number path int true "Project number"
			// @Success 200 {object} models.ProjectTimeline
			// @Failure 404 {object} ErrorResponse
			// @Router /projects/{number}/timeline [get]
			projects.GET("/:number/timeline", h.GetProjectTimeline)

			// @Summary Create or replace project
			// @Tags projects
			// @Accept json
			// @Produce json
			// @Param number path int true "Project number"
			// @Param project body ProjectRequest true "Project definition"
			// @Success 200 {object} models.ProjectStats
			// @Failure 400 {object} ErrorResponse
			// @Failure 500 {object} ErrorResponse
			// @Router /projects/{number} [put]
			projects.PUT("/:number", h.PutProject)

			// @Summary Delete project
			// @Tags projects
			// @Param number path int true "Project number"
			// @Success 204 "No Content"
			// @Failure 404 {object} ErrorResponse
			// @Router /projects/{number} [delete]
			projects.DELETE("/:number", h.DeleteProject)
		}

		// @Summary List issues
		// @Tags issues
		// @Produce json
		// @Param q query string false "Search title and body"
		// @Param repo query string false "Repository names, comma separated"
		// @Param status query string false "open, in_progress or closed, comma separated"
		// @Param assignee query string false "Assignee logins, comma separated"
		// @Param project query string false "Project numbers, comma separated"
		// @Param from query string false "Created on or after (YYYY-MM-DD)"
		// @Param to query string false "Created on or before (YYYY-MM-DD)"
		// @Param sort query string false "Sort key"
		// @Param page query int false "Page" default(1)
		// @Param page_size query int false "Page size" default(10)
		// @Success 200 {object} IssuePage
		// @Failure 400 {object} ErrorResponse
		// @Router /issues [get]
		v1.GET("/issues", h.ListIssues)

		// @Summary List pull requests
		// @Tags pulls
		// @Produce json
		// @Param q query string false "Search title and body"
		// @Param repo query string false "Repository names, comma separated"
		// @Param author query string false "Author logins, comma separated"
		// @Param state query string false "open, closed or merged, comma separated"
		// @Param from query string false "Created on or after (YYYY-MM-DD)"
		// @Param to query string false "Created on or before (YYYY-MM-DD)"
		// @Param sort query string false "Sort key"
		// @Param page query int false "Page" default(1)
		// @Param page_size query int false "Page size" default(10)
		// @Success 200 {object} PullRequestPage
		// @Failure 400 {object} ErrorResponse
		// @Router /pulls [get]
		v1.GET("/pulls", h.ListPullRequests)

		sync := v1.Group("/sync")
		{
			// @Summary Get sync status
			// @Description The running sync, or the most recent one
			// @Tags sync
			// @Produce json
			// @Success 200 {object} models.SyncStatus
			// @Failure 404 {object} ErrorResponse "No sync has run yet"
			// @Router /sync [get]
			sync.GET("", h.GetSyncStatus)

			// @Summary Trigger sync
			// @Tags sync
			// @Produce json
			// @Success 202 {object} models.SyncStatus
			// @Failure 409 {object} ErrorResponse "Sync already in progress"
			// @Router /sync [post]
			sync.POST("", h.TriggerSync)

			// @Summary Sync history
			// @Tags sync
			// @Produce json
			// @Param limit query int false "Number of runs" default(20)
			// @Success 200 {array} models.SyncStatus
			// @Router /sync/history [get]
			sync.GET("/history", h.ListSyncHistory)
		}
	}

	return r
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("Request handled")
	}
}
