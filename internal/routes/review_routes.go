package routes

import (
	"github.com/gin-gonic/gin"

	"shiply_server/internal/controllers"
	"shiply_server/internal/middleware"
)

func ReviewRoutes(api *gin.RouterGroup) {
	reviews := api.Group("/reviews")
	{
		reviews.POST("/", middleware.RequireAuth(), middleware.RequirePaid(), controllers.CreateReview)
		reviews.GET("/cargo/:cargoId", middleware.RequireAuth(), controllers.ReviewsByCargo)
		reviews.GET("/user/:userId", middleware.RequireAuth(), controllers.ReviewsByUser)
		reviews.PUT("/:id", middleware.RequireAuth(), middleware.RequirePaid(), controllers.UpdateReview)
		reviews.DELETE("/:id", middleware.RequireAuth(), middleware.RequirePaid(), controllers.DeleteReview)
	}
}
