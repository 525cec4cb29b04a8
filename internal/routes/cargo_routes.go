package routes

import (
	"github.com/gin-gonic/gin"

	"shiply_server/internal/controllers"
	"shiply_server/internal/middleware"
)

func CargoRoutes(api *gin.RouterGroup) {
	cargo := api.Group("/cargo")
	cargo.Use(middleware.RequireAuth(), middleware.RequirePaid())
	{
		cargo.POST("/", controllers.CreateCargo)
		cargo.GET("/my", controllers.MyCargos)
		cargo.GET("/available", controllers.AvailableCargos)
		cargo.GET("/:id", controllers.GetCargo)
		cargo.PUT("/:id", controllers.UpdateCargo)
		cargo.DELETE("/:id", controllers.DeleteCargo)
		cargo.POST("/:id/cancel", controllers.CancelCargo)
	}
}
