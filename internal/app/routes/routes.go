package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/shelfclub/internal/app/controllers"
	"github.com/yigit/shelfclub/internal/app/models/dto"
	"github.com/yigit/shelfclub/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	suggestionController *controllers.SuggestionController,
	votingController *controllers.VotingController,
	clubBookController *controllers.ClubBookController,
	authMiddleware *middleware.AuthMiddleware,
) {
	middleware.RegisterJSONFieldNames()
	router.NoRoute(middleware.NotFoundHandler)

	// API version group
	v1 := router.Group("/api/v1")

	// Health check endpoint (public)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}))
	})

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	clubs := authenticated.Group("/clubs/:id")
	{
		// Suggestions and votes
		clubs.POST("/suggestions", suggestionController.CreateSuggestion)
		clubs.GET("/suggestions", suggestionController.ListSuggestions)
		clubs.POST("/suggestions/:sid/vote", suggestionController.CastVote)
		clubs.DELETE("/suggestions/:sid/vote", suggestionController.RetractVote)

		// Voting cycle lifecycle, owner or admin only except reads
		voting := clubs.Group("/voting")
		{
			voting.GET("", votingController.GetCycle)
			voting.POST("/open", votingController.OpenCycle)
			voting.POST("/results", votingController.CloseCycle)
			voting.POST("/select-winner", votingController.SelectWinner)
			voting.GET("/ws", votingController.StreamEvents)
		}

		// Reading history
		clubs.POST("/complete-book", clubBookController.CompleteBook)
		clubs.GET("/books", clubBookController.ListBooks)
	}
}
