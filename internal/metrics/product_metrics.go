package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProductsCreated is a Prometheus counter for tracking the total number of products created.
	ProductsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_created_total",
		Help: "The total number of products created",
	})

	// ProductsUpdated is a Prometheus counter for tracking the total number of products updated.
	ProductsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_updated_total",
		Help: "The total number of products updated",
	})

	// ProductsDeleted is a Prometheus counter for tracking the total number of products deleted.
	ProductsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_deleted_total",
		Help: "The total number of products deleted",
	})

	// SalesCompleted is a Prometheus counter for tracking the total number of completed sales.
	SalesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_completed_total",
		Help: "The total number of completed sell operations",
	})

	// SalesRejected counts sell attempts rejected for insufficient inventory.
	SalesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_rejected_total",
		Help: "The total number of sell operations rejected for insufficient inventory",
	})

	// UnitsSold is a Prometheus counter for tracking the total units sold.
	UnitsSold = promauto.NewCounter(prometheus.CounterOpts{
		Name: "units_sold_total",
		Help: "The total number of inventory units sold",
	})
)
