package routes

import (
	"github.com/gin-gonic/gin"

	"shiply_server/internal/controllers"
	"shiply_server/internal/middleware"
)

func AuthRoutes(api *gin.RouterGroup) {
	auth := api.Group("/auth")
	{
		auth.POST("/send-otp", controllers.SendOTP)
		auth.POST("/verify-otp", controllers.VerifyOTP)
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
		auth.POST("/forgot-password", controllers.ForgotPassword)
		auth.POST("/reset-password", controllers.ResetPassword)
		auth.GET("/me", middleware.RequireAuth(), controllers.Me)
	}
}
