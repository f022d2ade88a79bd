package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopfloor/measure-backend/internal/http/response"
	"github.com/shopfloor/measure-backend/internal/platform/apierr"
	"github.com/shopfloor/measure-backend/internal/query"
	"github.com/shopfloor/measure-backend/internal/schema"
)

// DBAdminHandler fronts the schema catalog and the generic query engine.
type DBAdminHandler struct {
	catalog *schema.Catalog
	engine  *query.Engine
	debug   bool
}

func NewDBAdminHandler(catalog *schema.Catalog, engine *query.Engine, debug bool) *DBAdminHandler {
	return &DBAdminHandler{catalog: catalog, engine: engine, debug: debug}
}

// GET /db/schema/tables
func (dh *DBAdminHandler) ListTables(c *gin.Context) {
	tables, err := dh.catalog.ListTables(c.Request.Context())
	if err != nil {
		response.Fail(c, err, dh.debug)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": tables})
}

// GET /db/schema/tables/:table
func (dh *DBAdminHandler) DescribeTable(c *gin.Context) {
	desc, err := dh.catalog.DescribeTable(c.Request.Context(), c.Param("table"))
	if err != nil {
		response.Fail(c, err, dh.debug)
		return
	}
	c.JSON(http.StatusOK, desc)
}

// POST /db/query/select
func (dh *DBAdminHandler) Select(c *gin.Context) {
	var req query.SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apierr.BadRequest("invalid JSON body: %v", err), dh.debug)
		return
	}
	result, err := dh.engine.Select(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, err, dh.debug)
		return
	}
	c.JSON(http.StatusOK, result)
}

// POST /db/query/update
func (dh *DBAdminHandler) Update(c *gin.Context) {
	var req query.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apierr.BadRequest("invalid JSON body: %v", err), dh.debug)
		return
	}
	result, err := dh.engine.Update(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, err, dh.debug)
		return
	}
	c.JSON(http.StatusOK, result)
}
