package main

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "spendwise/internal/docs" // Import swagger docs
	"spendwise/internal/handlers"
	"spendwise/internal/middleware"
	"spendwise/internal/services"
)

type routerDeps struct {
	categoryService   services.CategoryServicer
	expenseService    services.ExpenseServicer
	upcomingService   services.UpcomingExpenseServicer
	conversionService services.ConversionServicer
	analysisService   services.AnalysisServicer
	auditService      services.AuditServicer
	pipelineAPIKey    string
	corsOrigins       []string
	loc               *time.Location
}

func newRouter(d routerDeps) *gin.Engine {
	categoryHandler := handlers.NewCategoryHandler(d.categoryService, d.expenseService, d.analysisService, d.auditService, d.loc)
	expenseHandler := handlers.NewExpenseHandler(d.expenseService, d.auditService, d.loc)
	upcomingHandler := handlers.NewUpcomingExpenseHandler(d.upcomingService, d.conversionService, d.auditService, d.loc)
	analysisHandler := handlers.NewAnalysisHandler(d.analysisService, d.loc)
	pipelineHandler := handlers.NewPipelineHandler(d.conversionService, d.loc)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors.New(corsConfig(d.corsOrigins)))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Category routes
	categories := v1.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.ListCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)
	categories.GET("/:id/expenses", categoryHandler.GetCategoryExpenses)
	categories.GET("/:id/detail", categoryHandler.GetCategoryDetail)

	// Expense routes
	expenses := v1.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("", expenseHandler.FilterExpenses)
	expenses.GET("/recent", expenseHandler.ListRecentExpenses)
	expenses.GET("/total", expenseHandler.GetTotalBalance)
	expenses.GET("/:id", expenseHandler.GetExpenseByID)
	expenses.PUT("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	// Upcoming expense routes
	upcoming := v1.Group("/upcoming-expenses")
	upcoming.POST("", upcomingHandler.CreateUpcomingExpense)
	upcoming.GET("", upcomingHandler.ListUpcomingExpenses)
	upcoming.GET("/range", upcomingHandler.ListPendingInRange)
	upcoming.GET("/summary", upcomingHandler.GetSummary)
	upcoming.GET("/:id", upcomingHandler.GetUpcomingExpenseByID)
	upcoming.PUT("/:id", upcomingHandler.UpdateUpcomingExpense)
	upcoming.DELETE("/:id", upcomingHandler.DeleteUpcomingExpense)
	upcoming.POST("/:id/convert", upcomingHandler.ConvertToExpense)
	upcoming.POST("/:id/paid", upcomingHandler.MarkPaid)
	upcoming.POST("/:id/skip", upcomingHandler.MarkSkipped)
	upcoming.POST("/:id/reset", upcomingHandler.ResetToPending)

	// Analysis routes
	analysis := v1.Group("/analysis")
	analysis.GET("/categories", analysisHandler.GetCategorySpending)
	analysis.GET("/monthly", analysisHandler.GetMonthlyTotals)

	// Pipeline routes (API key auth)
	pipeline := v1.Group("/pipeline", middleware.PipelineAuthMiddleware(d.pipelineAPIKey))
	pipeline.POST("/upcoming-expenses/process-due", pipelineHandler.ProcessDueUpcomingExpenses)

	return router
}

// corsConfig allows every origin when the list is empty or contains "*".
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
