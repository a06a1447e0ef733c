package controllers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/shelfclub/internal/app/models"
	"github.com/yigit/shelfclub/internal/app/models/dto"
	"github.com/yigit/shelfclub/internal/app/services"
	"github.com/yigit/shelfclub/internal/middleware"
	"github.com/yigit/shelfclub/internal/pkg/websocket"
)

// VotingController handles the voting cycle of a club
type VotingController struct {
	cycleService  services.VotingCycleService
	winnerService services.WinnerSelectionService
	feed          *websocket.Handler
	logger        zerolog.Logger
}

// NewVotingController creates a new VotingController
func NewVotingController(
	cycleService services.VotingCycleService,
	winnerService services.WinnerSelectionService,
	feed *websocket.Handler,
	logger zerolog.Logger,
) *VotingController {
	return &VotingController{
		cycleService:  cycleService,
		winnerService: winnerService,
		feed:          feed,
		logger:        logger,
	}
}

// GetCycle godoc
// @Summary Get the voting cycle
// @Description Returns the cycle state, deadline and current tallies of the club.
// @Tags voting
// @Produce json
// @Security BearerAuth
// @Param id path int true "Club ID"
// @Success 200 {object} dto.APIResponse{data=dto.CycleResponse} "Cycle retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Failure 403 {object} dto.ErrorResponse "Not an active member"
// @Failure 404 {object} dto.ErrorResponse "Club not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /clubs/{id}/voting [get]
func (c *VotingController) GetCycle(ctx *gin.Context) {
	clubID, userID, ok := clubAndUser(ctx)
	if !ok {
		return
	}

	view, err := c.cycleService.GetCycle(ctx.Request.Context(), clubID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromCycleView(view)))
}

// OpenCycle godoc
// @Summary Open a voting cycle
// @Description Opens a voting cycle for the club. Admins and owners only. Omitting durationMinutes uses the configured default.
// @Tags voting
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Club ID"
// @Param request body dto.OpenCycleRequest false "Cycle duration"
// @Success 200 {object} dto.APIResponse{data=dto.CycleResponse} "Cycle opened"
// @Failure 400 {object} dto.ErrorResponse "Invalid duration"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Failure 403 {object} dto.ErrorResponse "Not an admin or owner"
// @Failure 404 {object} dto.ErrorResponse "Club not found"
// @Failure 409 {object} dto.ErrorResponse "Cycle already open"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /clubs/{id}/voting/open [post]
func (c *VotingController) OpenCycle(ctx *gin.Context) {
	clubID, userID, ok := clubAndUser(ctx)
	if !ok {
		return
	}

	var req dto.OpenCycleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.HandleValidationError(ctx, err)
		return
	}

	club, err := c.cycleService.OpenCycle(ctx.Request.Context(), clubID, userID,
		time.Duration(req.DurationMinutes)*time.Minute)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessMessageResponse(dto.FromClub(club), "Voting cycle opened"))
}

// CloseCycle godoc
// @Summary Close the voting cycle and tally
// @Description Closes an expired voting cycle and resolves suggestions. A tie leaves every tied suggestion ACTIVE. Admins and owners only.
// @Tags voting
// @Produce json
// @Security BearerAuth
// @Param id path int true "Club ID"
// @Success 200 {object} dto.APIResponse{data=dto.CloseCycleResponse} "Cycle closed"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Failure 403 {object} dto.ErrorResponse "Not an admin or owner"
// @Failure 404 {object} dto.ErrorResponse "Club not found"
// @Failure 409 {object} dto.ErrorResponse "No open cycle or window not yet ended"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /clubs/{id}/voting/results [post]
func (c *VotingController) CloseCycle(ctx *gin.Context) {
	clubID, userID, ok := clubAndUser(ctx)
	if !ok {
		return
	}

	result, err := c.cycleService.CloseCycle(ctx.Request.Context(), clubID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessMessageResponse(dto.FromCloseResult(result), "Voting cycle closed"))
}

// SelectWinner godoc
// @Summary Select the winning book
// @Description Picks one of the remaining winners as the club's current book and rejects the others. Admins and owners only.
// @Tags voting
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Club ID"
// @Param request body dto.SelectWinnerRequest true "Winning book"
// @Success 200 {object} dto.APIResponse{data=dto.WinnerSelectionResponse} "Winner selected"
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Failure 403 {object} dto.ErrorResponse "Not an admin or owner"
// @Failure 404 {object} dto.ErrorResponse "Club not found"
// @Failure 409 {object} dto.ErrorResponse "Cycle open, club already reading or suggestion not eligible"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /clubs/{id}/voting/select-winner [post]
func (c *VotingController) SelectWinner(ctx *gin.Context) {
	clubID, userID, ok := clubAndUser(ctx)
	if !ok {
		return
	}

	var req dto.SelectWinnerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	selection, err := c.winnerService.SelectWinner(ctx.Request.Context(), clubID, req.BookID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessMessageResponse(dto.FromWinnerSelection(selection), "Winner selected"))
}

// StreamEvents godoc
// @Summary Subscribe to the club's voting events
// @Description Upgrades to a WebSocket that first sends a CYCLE_SNAPSHOT event and then every committed voting event of the club. Pass the token as the token query parameter when headers cannot be set.
// @Tags voting, websocket
// @Security BearerAuth
// @Param id path int true "Club ID"
// @Param token query string false "Bearer token for browser clients"
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Failure 403 {object} dto.ErrorResponse "Not an active member"
// @Failure 404 {object} dto.ErrorResponse "Club not found"
// @Router /clubs/{id}/voting/ws [get]
func (c *VotingController) StreamEvents(ctx *gin.Context) {
	clubID, userID, ok := clubAndUser(ctx)
	if !ok {
		return
	}

	// membership is checked before the upgrade so failures get an HTTP answer
	reqCtx := ctx.Request.Context()
	if _, err := c.cycleService.GetCycle(reqCtx, clubID, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	snapshot := func() (*models.ClubEvent, error) {
		view, err := c.cycleService.GetCycle(reqCtx, clubID, userID)
		if err != nil {
			return nil, err
		}
		return &models.ClubEvent{
			Type:       models.EventCycleSnapshot,
			ClubID:     clubID,
			OccurredAt: time.Now().UTC(),
			Payload:    dto.FromCycleView(view),
		}, nil
	}
	if err := c.feed.Connect(ctx, clubID, userID, snapshot); err != nil {
		// the upgrader has already answered the request
		c.logger.Warn().Err(err).Int64("clubID", clubID).Int64("userID", userID).Msg("Event feed connection failed")
	}
}

// clubAndUser reads the club path ID and the caller, answering the request
// itself when either is missing.
func clubAndUser(ctx *gin.Context) (clubID, userID int64, ok bool) {
	clubID, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return 0, 0, false
	}
	userID, err = middleware.CurrentUserID(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return 0, 0, false
	}
	return clubID, userID, true
}
