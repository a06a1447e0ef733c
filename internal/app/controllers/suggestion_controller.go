package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/shelfclub/internal/app/models"
	"github.com/yigit/shelfclub/internal/app/models/dto"
	"github.com/yigit/shelfclub/internal/app/services"
	"github.com/yigit/shelfclub/internal/middleware"
)

// SuggestionController handles suggestions and votes
type SuggestionController struct {
	suggestionService services.SuggestionService
	voteService       services.VoteService
}

// NewSuggestionController creates a new SuggestionController
func NewSuggestionController(suggestionService services.SuggestionService, voteService services.VoteService) *SuggestionController {
	return &SuggestionController{
		suggestionService: suggestionService,
		voteService:       voteService,
	}
}

// CreateSuggestion godoc
// @Summary Suggest a book
// @Description Proposes a book for the club's open voting cycle. Active members only.
// @Tags suggestions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Club ID"
// @Param request body dto.CreateSuggestionRequest true "Book to suggest"
// @Success 201 {object} dto.APIResponse{data=dto.SuggestionResponse} "Suggestion created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Failure 403 {object} dto.ErrorResponse "Not an active member"
// @Failure 404 {object} dto.ErrorResponse "Club or book not found"
// @Failure 409 {object} dto.ErrorResponse "No open cycle or book already suggested"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /clubs/{id}/suggestions [post]
func (c *SuggestionController) CreateSuggestion(ctx *gin.Context) {
	clubID, userID, ok := clubAndUser(ctx)
	if !ok {
		return
	}

	var req dto.CreateSuggestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	suggestion, err := c.suggestionService.CreateSuggestion(ctx.Request.Context(), clubID, req.BookID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessMessageResponse(dto.FromSuggestion(suggestion), "Suggestion created"))
}

// ListSuggestions godoc
// @Summary List suggestions
// @Description Lists the club's suggestions with vote counts and whether the caller voted for each.
// @Tags suggestions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Club ID"
// @Param status query string false "Filter by status" Enums(ACTIVE, SELECTED, REJECTED, EXPIRED)
// @Success 200 {object} dto.APIResponse{data=dto.SuggestionListResponse} "Suggestions retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid status filter"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Failure 403 {object} dto.ErrorResponse "Not an active member"
// @Failure 404 {object} dto.ErrorResponse "Club not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /clubs/{id}/suggestions [get]
func (c *SuggestionController) ListSuggestions(ctx *gin.Context) {
	clubID, userID, ok := clubAndUser(ctx)
	if !ok {
		return
	}

	var filter dto.SuggestionFilterRequest
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}
	var status *models.SuggestionStatus
	if filter.Status != "" {
		s := models.SuggestionStatus(filter.Status)
		status = &s
	}

	summaries, err := c.suggestionService.ListSuggestions(ctx.Request.Context(), clubID, userID, status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromSuggestionSummaries(summaries)))
}

// CastVote godoc
// @Summary Vote for a suggestion
// @Description Casts the caller's vote while the suggestion's voting window is open. A member may vote once per suggestion.
// @Tags votes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Club ID"
// @Param sid path int true "Suggestion ID"
// @Success 200 {object} dto.APIResponse{data=dto.VoteCountResponse} "Vote recorded"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Failure 403 {object} dto.ErrorResponse "Not an active member"
// @Failure 404 {object} dto.ErrorResponse "Club or suggestion not found"
// @Failure 409 {object} dto.ErrorResponse "Already voted or voting closed"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /clubs/{id}/suggestions/{sid}/vote [post]
func (c *SuggestionController) CastVote(ctx *gin.Context) {
	c.handleVote(ctx, c.voteService.CastVote, "Vote recorded")
}

// RetractVote godoc
// @Summary Retract a vote
// @Description Removes the caller's vote while the suggestion's voting window is open.
// @Tags votes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Club ID"
// @Param sid path int true "Suggestion ID"
// @Success 200 {object} dto.APIResponse{data=dto.VoteCountResponse} "Vote retracted"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Failure 403 {object} dto.ErrorResponse "Not an active member"
// @Failure 404 {object} dto.ErrorResponse "Club, suggestion or vote not found"
// @Failure 409 {object} dto.ErrorResponse "Voting closed"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /clubs/{id}/suggestions/{sid}/vote [delete]
func (c *SuggestionController) RetractVote(ctx *gin.Context) {
	c.handleVote(ctx, c.voteService.RetractVote, "Vote retracted")
}

type voteFunc func(ctx context.Context, clubID, suggestionID, voterID int64) (int, error)

func (c *SuggestionController) handleVote(ctx *gin.Context, vote voteFunc, message string) {
	clubID, userID, ok := clubAndUser(ctx)
	if !ok {
		return
	}
	suggestionID, err := parseIDParam(ctx, "sid")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	count, err := vote(ctx.Request.Context(), clubID, suggestionID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessMessageResponse(dto.VoteCountResponse{
		SuggestionID: suggestionID,
		VoteCount:    count,
	}, message))
}
