package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"hms/src/allocator"
	"hms/src/db"
	"hms/src/lib"
	"hms/src/models"
	"hms/src/types"
	"hms/src/utils"

	"github.com/gin-gonic/gin"
)

func bedHandlers(g *gin.RouterGroup, gateway *allocator.AllocationGateway) *gin.RouterGroup {
	beds := g.Group("/beds")
	beds.
		GET("", func(ctx *gin.Context) {
			var query struct {
				Ward   string `form:"ward"`
				Status string `form:"status"`
				Floor  *int   `form:"floor"`
			}
			if err := ctx.BindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			db := db.GetDb()
			model := db.Model(&models.Bed{}).Order("bed_number asc")
			if query.Ward != "" {
				model = model.Where("ward = ?", query.Ward)
			}
			if query.Status != "" {
				model = model.Where("status = ?", query.Status)
			}
			if query.Floor != nil {
				model = model.Where("floor = ?", *query.Floor)
			}
			var rows []models.Bed
			if err := model.Find(&rows).Error; err != nil {
				log.Printf("Error listing beds: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": rows})
		}).
		POST("", func(ctx *gin.Context) {
			var body types.CreateBedRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			bed := models.Bed{
				BedNumber: body.BedNumber,
				Ward:      body.Ward,
				Floor:     body.Floor,
				Type:      body.Type,
				DailyRate: body.DailyRate,
				Status:    types.BED_AVAILABLE,
			}
			if err := db.GetDb().Create(&bed).Error; err != nil {
				log.Printf("Error registering bed: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"success": true, "data": bed})
		}).
		PUT("/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			var body types.UpdateBedRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			db := db.GetDb()
			var bed models.Bed
			if err := db.First(&bed, params.ID).Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"success": false, "message": "bed not found"})
				return
			}
			// descriptive fields only; status belongs to the allocator
			updates := map[string]any{}
			if body.Ward != "" {
				updates["ward"] = body.Ward
			}
			if body.Floor != 0 {
				updates["floor"] = body.Floor
			}
			if body.Type != "" {
				updates["type"] = body.Type
			}
			if body.DailyRate != 0 {
				updates["daily_rate"] = body.DailyRate
			}
			if len(updates) > 0 {
				if err := db.Model(&bed).Updates(updates).Error; err != nil {
					ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
					return
				}
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": bed})
		}).
		POST("/:id/maintenance", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			bed, err := gateway.SetBedMaintenance(params.ID)
			if err != nil {
				respondAllocatorError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": bed})
		}).
		POST("/:id/return", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			bed, err := gateway.ReturnBedToService(params.ID)
			if err != nil {
				respondAllocatorError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": bed})
		}).
		GET("/allocations", func(ctx *gin.Context) {
			var query struct {
				types.PageQuery
				Status  string `form:"status"`
				Patient string `form:"patient"`
			}
			if err := ctx.BindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			offset, limit := utils.Paginate(query.Page, query.Limit)
			db := db.GetDb()
			model := db.Model(&models.BedAllocation{}).
				Preload("Bed").
				Preload("TransferHistory").
				Order("admission_date desc")
			if query.Status != "" {
				model = model.Where("status = ?", query.Status)
			}
			if query.Patient != "" {
				model = model.Where("patient_id = ?", query.Patient)
			}
			var rows []models.BedAllocation
			if err := model.Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
				log.Printf("Error listing allocations: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": rows})
		}).
		POST("/allocate", func(ctx *gin.Context) {
			var body types.AllocateBedRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			actor := ctx.GetString("actor")
			stay, err := gateway.AllocateBed(actor, &body)
			if err != nil {
				respondAllocatorError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"success": true, "data": stay})
		}).
		POST("/transfer", func(ctx *gin.Context) {
			var body types.TransferBedRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			actor := ctx.GetString("actor")
			stay, err := gateway.TransferBed(actor, &body)
			if err != nil {
				respondAllocatorError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": stay})
		}).
		POST("/discharge/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			actor := ctx.GetString("actor")
			stay, err := gateway.DischargeBed(actor, params.ID)
			if err != nil {
				respondAllocatorError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": stay})
		}).
		GET("/dashboard", func(ctx *gin.Context) {
			const cacheKey = "dashboard:beds"
			if val := lib.CacheRead(cacheKey); val != "" {
				var stats []allocator.WardStats
				if err := json.Unmarshal([]byte(val), &stats); err == nil {
					ctx.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
					return
				}
			}
			stats, err := gateway.Beds.DashboardStats()
			if err != nil {
				log.Printf("Error computing bed dashboard: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
				return
			}
			if raw, err := json.Marshal(stats); err == nil {
				lib.CacheWrite(cacheKey, string(raw), 30*time.Second)
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
		})
	return beds
}
