package routes

import (
	"petopia/controllers"
	"petopia/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth       *controllers.AuthController
	Categories *controllers.CategoryController
	Products   *controllers.ProductController
	Coupons    *controllers.CouponController
	Users      *controllers.UserController
	Orders     *controllers.OrderController
	Analytics  *controllers.AnalyticsController
	Health     *controllers.HealthController
}

func RegisterRoutes(r *gin.Engine, h Handlers, verifier middleware.TokenVerifier) {
	auth := middleware.AuthMiddleware(verifier)

	r.GET("/health", h.Health.Health)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/logout", auth, h.Auth.Logout)
		authGroup.GET("/me", auth, h.Auth.Me)
	}

	api := r.Group("/api")
	{
		api.GET("/products", h.Products.ListPublic)
		api.GET("/products/:id", h.Products.GetPublic)
		api.GET("/categories", h.Categories.ListPublic)

		protected := api.Group("/")
		protected.Use(auth)
		{
			protected.POST("/coupons/apply", h.Coupons.Apply)

			protected.POST("/orders", h.Orders.Place)
			protected.GET("/orders", h.Orders.ListMine)
			protected.GET("/orders/:id", h.Orders.GetMine)
			protected.PUT("/orders/:id/cancel", h.Orders.CancelMine)

			admin := protected.Group("/admin")
			admin.Use(middleware.AdminMiddleware())
			{
				admin.GET("/products", h.Products.List)
				admin.GET("/products/check-name", h.Products.CheckName)
				admin.GET("/products/:id", h.Products.Get)
				admin.POST("/products", h.Products.Create)
				admin.PUT("/products/:id", h.Products.Update)
				admin.DELETE("/products/:id", h.Products.Delete)
				admin.PUT("/products/:id/restore", h.Products.Restore)

				admin.GET("/categories", h.Categories.List)
				admin.GET("/categories/check-name", h.Categories.CheckName)
				admin.GET("/categories/:id", h.Categories.Get)
				admin.POST("/categories", h.Categories.Create)
				admin.PUT("/categories/:id", h.Categories.Update)
				admin.DELETE("/categories/:id", h.Categories.Delete)
				admin.PUT("/categories/:id/restore", h.Categories.Restore)

				admin.GET("/coupons", h.Coupons.List)
				admin.GET("/coupons/check-code", h.Coupons.CheckCode)
				admin.GET("/coupons/:id", h.Coupons.Get)
				admin.POST("/coupons", h.Coupons.Create)
				admin.PUT("/coupons/:id", h.Coupons.Update)
				admin.DELETE("/coupons/:id", h.Coupons.Delete)
				admin.PUT("/coupons/:id/restore", h.Coupons.Restore)

				admin.GET("/users", h.Users.List)
				admin.GET("/users/:id", h.Users.Get)
				admin.PUT("/users/:id/block", h.Users.Block)
				admin.PUT("/users/:id/unblock", h.Users.Unblock)

				admin.GET("/orders", h.Orders.List)
				admin.GET("/orders/:id", h.Orders.Get)
				admin.GET("/orders/:id/transitions", h.Orders.Transitions)
				admin.PUT("/orders/:id/status", h.Orders.UpdateStatus)
				admin.PUT("/orders/:id/pay", h.Orders.MarkPaid)

				admin.GET("/analytics/summary", h.Analytics.Summary)
				admin.GET("/analytics/sales", h.Analytics.Sales)
				admin.GET("/analytics/status", h.Analytics.Status)
				admin.GET("/analytics/top-products", h.Analytics.TopProducts)
				admin.GET("/analytics/buckets", h.Analytics.Buckets)
				admin.GET("/analytics/categories", h.Analytics.Categories)
			}
		}
	}
}
