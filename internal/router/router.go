package router

import (
	"github.com/gin-gonic/gin"
	"github.com/johnkennedyb/apparcus/internal/config"
	"github.com/johnkennedyb/apparcus/internal/gateway"
	"github.com/johnkennedyb/apparcus/internal/handler"
	"github.com/johnkennedyb/apparcus/internal/logic"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, gw *gateway.Client, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "apparcus-payment-service",
		})
	})

	// 业务逻辑层
	reconcileLogic := logic.NewReconcileLogic(db)
	paymentLogic := logic.NewPaymentLogic(db, gw, reconcileLogic, cfg.Paystack.Currency)
	supportRequestLogic := logic.NewSupportRequestLogic(db)
	projectLogic := logic.NewProjectLogic(db)
	walletLogic := logic.NewWalletLogic(db, cfg.Paystack.Currency)
	transactionLogic := logic.NewTransactionLogic(db)
	auditLogic := logic.NewAuditLogic(db, reconcileLogic, cfg.Audit.Concurrency)

	// Paystack 回调，签名校验在处理器内完成
	webhookHandler := handler.NewWebhookHandler(gw, reconcileLogic)
	r.POST("/webhooks/paystack", webhookHandler.HandlePaystack)

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 支付相关路由
		paymentHandler := handler.NewPaymentHandler(paymentLogic, reconcileLogic)
		payments := v1.Group("/payments")
		{
			payments.POST("/initialize", paymentHandler.InitializePayment)
			payments.GET("/:reference", paymentHandler.GetPayment)
			payments.GET("/:reference/verify", paymentHandler.VerifyPayment)
			payments.PUT("/:reference/status", paymentHandler.UpdatePaymentStatus)
		}

		// 支持请求相关路由
		supportRequestHandler := handler.NewSupportRequestHandler(supportRequestLogic, paymentLogic)
		supportRequests := v1.Group("/support-requests")
		{
			supportRequests.POST("", supportRequestHandler.CreateSupportRequest)
			supportRequests.GET("", supportRequestHandler.GetSupportRequests)
			supportRequests.GET("/:id", supportRequestHandler.GetSupportRequest)
			supportRequests.GET("/:id/payments", supportRequestHandler.GetSupportRequestPayments)
			supportRequests.PUT("/:id/cancel", supportRequestHandler.CancelSupportRequest)
		}

		// 项目相关路由
		projectHandler := handler.NewProjectHandler(projectLogic)
		projects := v1.Group("/projects")
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.GetProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.GET("/:id/stats", projectHandler.GetProjectStats)
		}

		// 钱包相关路由
		walletHandler := handler.NewWalletHandler(walletLogic)
		wallets := v1.Group("/wallets")
		{
			wallets.GET("", walletHandler.GetMainWallet)
			wallets.GET("/all", walletHandler.GetUserWallets)
			wallets.GET("/balance", walletHandler.GetWalletBalance)
			wallets.POST("", walletHandler.GetOrCreateWallet)
			wallets.POST("/withdraw", walletHandler.Withdraw)
			wallets.POST("/transfer", walletHandler.Transfer)
		}

		// 账目相关路由
		transactionHandler := handler.NewTransactionHandler(transactionLogic)
		transactions := v1.Group("/transactions")
		{
			transactions.GET("", transactionHandler.GetTransactions)
			transactions.GET("/:id", transactionHandler.GetTransaction)
		}

		// 运维审计路由
		auditHandler := handler.NewAuditHandler(auditLogic)
		admin := v1.Group("/admin")
		{
			admin.POST("/audit", auditHandler.Audit)
			admin.POST("/repair", auditHandler.Repair)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-User-Id")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
