package handlers

import (
	"net/http"

	"voltbridge/internal/core"
	"voltbridge/internal/session"
	"voltbridge/internal/vendors"

	"github.com/gin-gonic/gin"
)

// StoreFactory builds the per-request token store. In production this is
// the encrypted cookie store bound to the request's cookie jar; tests
// inject a memory-backed factory.
type StoreFactory func(c *gin.Context) session.Store

// respond writes the uniform result envelope. Every operation resolves to
// {success, data|error} here; errors never propagate past this point.
func respond(c *gin.Context, data any, err error) {
	if err != nil {
		c.JSON(core.StatusFor(err), core.Fail(err))
		return
	}
	c.JSON(http.StatusOK, core.OK(data))
}

// resolveClient looks up the vendor named in the route, answering 404 for
// unknown vendors
func resolveClient(c *gin.Context, registry *vendors.Registry) (vendors.Client, bool) {
	client, err := registry.Get(c.Param("vendor"))
	if err != nil {
		c.JSON(http.StatusNotFound, core.Fail(err))
		return nil, false
	}
	return client, true
}
