package http

import (
	"github.com/gin-gonic/gin"
	"github.com/sofuled/catalog-service/internal/auth"
	"github.com/sofuled/catalog-service/internal/http/controller"
	"github.com/sofuled/catalog-service/internal/http/middleware"
)

// InitRouter wires the middlewares and product endpoints onto the engine.
// Every /products route requires a verified bearer credential; the health
// check does not.
func InitRouter(verifier auth.Verifier, server *gin.Engine, ctr *controller.Controller, productCtr *controller.ProductController) *gin.Engine {
	server.Use(middleware.Recovery())
	server.Use(middleware.CORS())
	server.Use(middleware.Logger())

	server.GET("/ping", ctr.Ping)

	products := server.Group("/products")
	products.Use(middleware.Auth(verifier))
	{
		products.GET("", productCtr.ListProducts)
		products.GET("/:id", productCtr.GetProduct)
		products.POST("", productCtr.CreateProduct)
		products.PUT("/:id", productCtr.UpdateProduct)
		products.DELETE("/:id", productCtr.DeleteProduct)
		products.POST("/:id/sell", productCtr.SellProduct)
	}

	return server
}
