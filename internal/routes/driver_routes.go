package routes

import (
	"github.com/gin-gonic/gin"

	"shiply_server/internal/controllers"
	"shiply_server/internal/middleware"
)

func DriverRoutes(api *gin.RouterGroup) {
	driver := api.Group("/driver")
	driver.Use(middleware.RequireAuthWithRole("driver"), middleware.RequirePaid())
	{
		driver.POST("/profile", controllers.SubmitProfile)
		driver.GET("/profile", controllers.GetProfile)
		driver.GET("/orders", controllers.GetOrders)
		driver.POST("/accept-order/:cargoId", controllers.AcceptOrder)
		driver.POST("/start-transit/:cargoId", controllers.StartTransit)
		driver.POST("/complete-order/:cargoId", controllers.CompleteOrder)
	}
}
