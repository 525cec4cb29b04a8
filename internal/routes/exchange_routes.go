package routes

import (
	"github.com/gin-gonic/gin"

	"shiply_server/internal/controllers"
)

func ExchangeRoutes(api *gin.RouterGroup) {
	exchange := api.Group("/exchange")
	{
		// Public: the landing page shows rates before login.
		exchange.GET("/rates", controllers.GetRates)
	}
}
