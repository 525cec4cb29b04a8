package routes

import (
	"github.com/gin-gonic/gin"

	"shiply_server/internal/controllers"
	"shiply_server/internal/mailer"
)

func SetupRouter() *gin.Engine {
	r := gin.New()

	controllers.SetMailer(mailer.New())

	api := r.Group("/api")

	AuthRoutes(api)
	CargoRoutes(api)
	DriverRoutes(api)
	AdminRoutes(api)
	ReviewRoutes(api)
	PaymentRoutes(api)
	ExchangeRoutes(api)
	HistoryRoutes(api)

	return r
}
