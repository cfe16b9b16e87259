package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(handler *Handler, authMiddleware gin.HandlerFunc, environment string) *gin.Engine {
	if environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}))

	router.POST("/auth/register", handler.register)
	router.POST("/auth/login", handler.login)
	router.POST("/auth/refresh", handler.refresh)
	router.GET("/shipments/public/open-shipments", handler.publicOpenShipments)

	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/shipments", handler.postShipment)
	protected.GET("/shipments", handler.listMyShipments)
	protected.GET("/shipments/history", handler.shipmentHistory)
	protected.GET("/shipments/history/export", handler.exportShipmentHistory)
	protected.GET("/shipments/available-for-bidding", handler.availableShipments)
	protected.GET("/shipments/assigned", handler.assignedShipments)
	protected.GET("/shipments/delivered", handler.deliveredShipments)
	protected.GET("/shipments/:id", handler.getShipment)
	protected.PUT("/shipments/:id/status", handler.updateShipmentStatus)
	protected.PUT("/shipments/:id/mark-delivered-by-logistics", handler.markDeliveredByLogistics)
	protected.PUT("/shipments/:id/mark-delivered-by-user", handler.markDeliveredByUser)
	protected.PUT("/shipments/:id/rate", handler.rateShipment)
	protected.GET("/shipments/:id/waybill", handler.shipmentWaybill)
	protected.DELETE("/shipments/:id", handler.deleteShipment)

	protected.POST("/bids", handler.createBid)
	protected.GET("/bids/shipment/:id", handler.bidsForShipment)
	protected.GET("/bids/my-bids", handler.myBids)
	protected.GET("/bids/on-my-shipments", handler.bidsOnMyShipments)
	protected.PUT("/bids/:id/accept", handler.acceptBid)
	protected.PUT("/bids/:id/reject", handler.rejectBid)
	protected.PUT("/bids/:id", handler.updateBid)
	protected.DELETE("/bids/:id", handler.cancelBid)
	protected.POST("/bids/:id/request-price-update", handler.requestBidPriceUpdate)

	return router
}
