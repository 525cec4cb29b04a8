package routes

import (
	"github.com/gin-gonic/gin"

	"shiply_server/internal/controllers"
	"shiply_server/internal/middleware"
)

func HistoryRoutes(api *gin.RouterGroup) {
	history := api.Group("/history")
	history.Use(middleware.RequireAuth(), middleware.RequirePaid())
	{
		history.GET("/cargos", controllers.CargoHistory)
		history.GET("/orders", controllers.OrderHistory)
	}
}
