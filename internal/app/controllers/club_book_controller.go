package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/shelfclub/internal/app/models"
	"github.com/yigit/shelfclub/internal/app/models/dto"
	"github.com/yigit/shelfclub/internal/app/services"
	"github.com/yigit/shelfclub/internal/middleware"
	"github.com/yigit/shelfclub/internal/pkg/helpers"
)

// ClubBookController handles the club's current book and reading history
type ClubBookController struct {
	winnerService services.WinnerSelectionService
}

// NewClubBookController creates a new ClubBookController
func NewClubBookController(winnerService services.WinnerSelectionService) *ClubBookController {
	return &ClubBookController{
		winnerService: winnerService,
	}
}

// CompleteBook godoc
// @Summary Finish the current book
// @Description Marks the club's current book COMPLETED or ABANDONED and frees the club for its next selection. Rating (1-5) is required for COMPLETED. Admins and owners only.
// @Tags club-books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Club ID"
// @Param request body dto.CompleteBookRequest true "Closing details"
// @Success 200 {object} dto.APIResponse{data=dto.ClubBookResponse} "Book finished"
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Failure 403 {object} dto.ErrorResponse "Not an admin or owner"
// @Failure 404 {object} dto.ErrorResponse "Club not found"
// @Failure 409 {object} dto.ErrorResponse "No current book"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /clubs/{id}/complete-book [post]
func (c *ClubBookController) CompleteBook(ctx *gin.Context) {
	clubID, userID, ok := clubAndUser(ctx)
	if !ok {
		return
	}

	var req dto.CompleteBookRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	clubBook, err := c.winnerService.CompleteCurrentBook(ctx.Request.Context(), clubID, userID, models.FinishBookInput{
		Status: models.ClubBookStatus(req.Status),
		Rating: req.Rating,
		Notes:  req.Notes,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessMessageResponse(dto.FromClubBook(clubBook), "Book finished"))
}

// ListBooks godoc
// @Summary Get the reading history
// @Description Lists the books the club has read or is reading, newest first.
// @Tags club-books
// @Produce json
// @Security BearerAuth
// @Param id path int true "Club ID"
// @Param page query int false "Page number (1-based)" default(1) minimum(1)
// @Param pageSize query int false "Page size (default: 10, max: 100)" default(10) minimum(1) maximum(100)
// @Success 200 {object} dto.APIResponse{data=dto.ClubBookListResponse} "History retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Failure 403 {object} dto.ErrorResponse "Not an active member"
// @Failure 404 {object} dto.ErrorResponse "Club not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /clubs/{id}/books [get]
func (c *ClubBookController) ListBooks(ctx *gin.Context) {
	clubID, userID, ok := clubAndUser(ctx)
	if !ok {
		return
	}
	pageReq := helpers.ParsePaginationParams(ctx)

	history, err := c.winnerService.ListReadingHistory(ctx.Request.Context(), clubID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	pageItems, pageInfo := helpers.Paginate(history, pageReq)
	books := make([]dto.ClubBookResponse, 0, len(pageItems))
	for i := range pageItems {
		books = append(books, dto.FromClubBook(&pageItems[i]))
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ClubBookListResponse{
		Books:          books,
		PaginationInfo: pageInfo,
	}))
}
