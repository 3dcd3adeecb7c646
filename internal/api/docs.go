package api

import (
	"github.com/Kamar-Folarin/team-insights/internal/models"

	_ "github.com/Kamar-Folarin/team-insights/docs"
)

// ErrorResponse represents an API error
// @Description Error response from the API
// @swagger:model ErrorResponse
type ErrorResponse struct {
	// Error message
	// @example project not found: 7
	Error string `json:"error" example:"project not found: 7"`
}

// HealthResponse reports liveness
// @swagger:model HealthResponse
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// IssuePage is one page of issues with derived status
// @Description A paginated list of issues
// @swagger:model IssuePage
type IssuePage struct {
	Items []models.IssueView `json:"items"`
	// 1-based page number
	// @example 1
	Page       int `json:"page" example:"1"`
	PageSize   int `json:"page_size" example:"10"`
	TotalItems int `json:"total_items" example:"42"`
	TotalPages int `json:"total_pages" example:"5"`
}

// PullRequestPage is one page of pull requests
// @swagger:model PullRequestPage
type PullRequestPage struct {
	Items      []models.PullRequest `json:"items"`
	Page       int                  `json:"page" example:"1"`
	PageSize   int                  `json:"page_size" example:"10"`
	TotalItems int                  `json:"total_items" example:"42"`
	TotalPages int                  `json:"total_pages" example:"5"`
}

// ProjectPage is one page of project statistics
// @swagger:model ProjectPage
type ProjectPage struct {
	Items      []models.ProjectStats `json:"items"`
	Page       int                   `json:"page" example:"1"`
	PageSize   int                   `json:"page_size" example:"10"`
	TotalItems int                   `json:"total_items" example:"3"`
	TotalPages int                   `json:"total_pages" example:"1"`
}
