package routes

import (
	"github.com/gin-gonic/gin"

	"shiply_server/internal/controllers"
	"shiply_server/internal/middleware"
)

func PaymentRoutes(api *gin.RouterGroup) {
	payment := api.Group("/payment")
	payment.Use(middleware.RequireAuth())
	{
		payment.POST("/activate", controllers.ActivateAccount)
		payment.GET("/status", controllers.PaymentStatus)
	}
}
