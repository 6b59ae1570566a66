package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/identity"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/session"
	"storefront/web"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal("config: ", err)
	}
	cfg := config.AppEnv
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	client, err := database.Connect(context.Background(), cfg.MongoURI)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("[DB] [WARN] product index warning: %v", err)
	}
	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("[DB] [WARN] user index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("[DB] [WARN] order index warning: %v", err)
	}

	var store session.Store
	switch cfg.SessionBackend {
	case "memory":
		log.Println("[SESSION] [WARN] using in-memory sessions; they are lost on restart")
		store = session.NewMemoryStore()
	default:
		if err := database.EnsureSessionIndexes(db); err != nil {
			log.Printf("[DB] [WARN] session index warning: %v", err)
		}
		store = session.NewMongoStore(db)
	}

	provider := identity.NewClient(identity.Config{
		BaseURL:    cfg.SupabaseURL,
		AnonKey:    cfg.SupabaseAnonKey,
		ServiceKey: cfg.ServiceRoleKey,
		Timeout:    cfg.IDPTimeout,
	})

	sessions := session.NewManager(session.ManagerConfig{
		Store:  store,
		Secret: cfg.SessionSecret,
		TTL:    cfg.SessionTTL,
		Secure: cfg.CookieSecure,
	})

	users := repository.NewUserRepository(db)
	products := repository.NewProductRepository(db)
	orders := repository.NewOrderRepository(db)

	uploads, err := handlers.NewUploadStore(cfg.UploadsDir)
	if err != nil {
		log.Fatal(err)
	}

	templates, err := web.Templates()
	if err != nil {
		log.Fatal("templates: ", err)
	}

	authDeps := handlers.AuthDeps{
		Provider:     provider,
		Sessions:     sessions,
		Users:        users,
		AdminEmail:   cfg.AdminEmail,
		BaseURL:      cfg.BaseURL,
		SecureCookie: cfg.CookieSecure,
	}
	profileDeps := handlers.ProfileDeps{
		Sessions: sessions,
		Users:    users,
		Provider: provider,
		Uploads:  uploads,
	}
	adminDeps := handlers.AdminDeps{Users: users, Products: products, Orders: orders}

	authGuard := middleware.NewAuthGuard(sessions, provider, cfg.AdminEmail).Handler()

	r := gin.Default()
	r.SetHTMLTemplate(templates)
	r.Static("/uploads", cfg.UploadsDir)
	r.Static("/static", "./frontend/static")
	r.Use(sessions.Middleware())

	r.GET("/", handlers.Home())
	r.GET("/about", handlers.Page("about", "about"))
	r.GET("/contact", handlers.Page("contact", "contact"))
	r.GET("/product", handlers.Page("product", "product"))
	r.GET("/collection", handlers.Page("collection", "collection"))

	r.GET("/register", handlers.RegisterPage())
	r.POST("/register", handlers.Register(authDeps))
	r.GET("/login", handlers.LoginPage())
	r.POST("/login", handlers.Login(authDeps))
	r.GET("/login/google", handlers.OAuthStart(authDeps, "login"))
	r.GET("/register/google", handlers.OAuthStart(authDeps, "register"))
	r.GET("/auth/callback", handlers.OAuthCallback(authDeps))
	r.GET("/auth/session", handlers.SessionInfo())
	r.GET("/logout", handlers.Logout(authDeps))

	r.GET("/profile", authGuard, handlers.Page("profile", "Profile"))
	r.GET("/edit_profile", authGuard, handlers.Page("edit_profile", "edit_profile"))
	r.GET("/cart", authGuard, handlers.Page("cart", "cart"))
	r.POST("/update-profile", authGuard, handlers.UpdateProfile(profileDeps))
	r.GET("/admin", authGuard, middleware.AdminPageGuard(), handlers.AdminDashboard())

	r.GET("/api/products", handlers.GetProducts(products))
	r.GET("/api/products/:id", handlers.GetProduct(products))

	admin := r.Group("/api/admin")
	admin.Use(middleware.AdminGuard())
	{
		admin.GET("/stats", handlers.GetStats(adminDeps))

		admin.GET("/users", handlers.GetUsers(users))
		admin.GET("/users/:id", handlers.GetUser(users))
		admin.PUT("/users/:id", handlers.UpdateUser(users))
		admin.DELETE("/users/:id", handlers.DeleteUser(users))

		admin.GET("/products", handlers.GetAllProducts(products))
		admin.GET("/products/:id", handlers.GetAdminProduct(products))
		admin.POST("/products", handlers.CreateProduct(products))
		admin.PUT("/products/:id", handlers.UpdateProduct(products))
		admin.DELETE("/products/:id", handlers.DeleteProduct(products))

		admin.GET("/orders", handlers.GetOrders(orders))
		admin.GET("/orders/:id", handlers.GetOrder(orders))
		admin.PUT("/orders/:id", handlers.UpdateOrder(orders))
	}

	log.Printf("Server running on %s", cfg.BaseURL)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
