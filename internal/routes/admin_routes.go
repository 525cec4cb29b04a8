package routes

import (
	"github.com/gin-gonic/gin"

	"shiply_server/internal/controllers"
	"shiply_server/internal/middleware"
)

func AdminRoutes(api *gin.RouterGroup) {
	admin := api.Group("/admin")
	admin.Use(middleware.RequireAuthWithRole("admin"))
	{
		admin.GET("/drivers", controllers.ListDriversAdmin)
		admin.POST("/verify-driver/:driverId", controllers.VerifyDriver)
		admin.POST("/reject-driver/:driverId", controllers.RejectDriver)
		admin.GET("/stats", controllers.Stats)
		admin.GET("/users", controllers.ListUsers)
		admin.GET("/cargos", controllers.ListCargosAdmin)
		admin.PUT("/cargos/:id", controllers.UpdateCargoAdmin)
		admin.DELETE("/cargos/:id", controllers.DeleteCargoAdmin)
	}
}
