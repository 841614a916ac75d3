package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"nutriguide/db"
	"nutriguide/handlers"
	"nutriguide/middleware"
	"nutriguide/services"
	"nutriguide/store"
)

func runMigrations() {
	sqlBytes, err := os.ReadFile("schema.sql")
	if err != nil {
		log.Fatal("Failed to read schema.sql:", err)
	}

	if _, err := db.GetDB().Exec(string(sqlBytes)); err != nil {
		log.Fatal("Failed to apply schema:", err)
	}
	log.Println("Database schema verified")
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env vars")
	}

	if err := db.InitDB(); err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	runMigrations()

	users := store.NewPostgresUserStore(db.GetDB())
	mailer := services.NewMailer()
	userService := services.NewUserService(users, mailer)
	handlers.Init(users, userService, services.NewAssistantClient())

	// Subscription expiry sweep
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("subscription sweep panic: %v", r)
					}
				}()
				services.CheckExpiredSubscriptions(users, mailer)
			}()
		}
	}()

	r := gin.Default()
	r.Use(middleware.RequestID())

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", handlers.Register)
		auth.POST("/login", handlers.Login)
		auth.GET("/check-username", handlers.CheckUsername)
		auth.GET("/check-email", handlers.CheckEmail)
	}

	private := api.Group("")
	private.Use(middleware.AuthRequired())
	{
		private.GET("/users/me", handlers.GetProfile)
		private.PUT("/users/me", handlers.UpdateProfile)
		private.POST("/users/me/password", handlers.ChangePassword)
		private.GET("/users/me/subscription", handlers.GetSubscription)
		private.DELETE("/users/me", handlers.DeleteAccount)

		private.GET("/recipes", handlers.ListRecipes)
		private.GET("/recipes/search", handlers.SearchRecipes)
		private.GET("/recipes/:id", handlers.GetRecipe)
		private.POST("/recipes", handlers.CreateRecipe)

		private.GET("/saved-recipes", handlers.ListSavedRecipes)
		private.POST("/saved-recipes", handlers.SaveRecipe)
		private.DELETE("/saved-recipes/:recipe_id", handlers.UnsaveRecipe)

		private.GET("/planner", handlers.GetPlan)
		private.POST("/planner", handlers.AddToPlan)
		private.PATCH("/planner/:id/complete", handlers.CompletePlannerEntry)
		private.DELETE("/planner/:id", handlers.RemoveFromPlan)

		private.POST("/assistant/chat", handlers.AssistantChat)
		private.GET("/assistant/history", handlers.AssistantHistory)
	}

	admin := api.Group("/admin")
	admin.POST("/login", handlers.AdminLogin)
	adminOnly := admin.Group("")
	adminOnly.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		adminOnly.GET("/users", handlers.AdminListUsers)
		adminOnly.POST("/users", handlers.AdminCreateUser)
		adminOnly.GET("/users/:id", handlers.AdminGetUser)
		adminOnly.PUT("/users/:id", handlers.AdminUpdateUser)
		adminOnly.DELETE("/users/:id", handlers.AdminDeleteUser)
		adminOnly.POST("/users/:id/upgrade", handlers.AdminUpgradeUser)
		adminOnly.POST("/users/:id/downgrade", handlers.AdminDowngradeUser)
		adminOnly.POST("/users/:id/extend", handlers.AdminExtendSubscription)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("Server starting on port " + port)
	r.Run(":" + port)
}
