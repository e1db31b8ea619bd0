package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"hms/src/allocator"
	"hms/src/config"
	"hms/src/db"
	"hms/src/lib"
	"hms/src/models"
	"hms/src/types"
	"hms/src/utils"

	"github.com/gin-gonic/gin"
)

func bloodHandlers(g *gin.RouterGroup, gateway *allocator.AllocationGateway) *gin.RouterGroup {
	blood := g.Group("/blood")

	units := blood.Group("/units")
	units.
		GET("", func(ctx *gin.Context) {
			var query struct {
				BloodGroup string `form:"blood_group"`
				Component  string `form:"component"`
				Status     string `form:"status"`
			}
			if err := ctx.BindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			db := db.GetDb()
			model := db.Model(&models.BloodUnit{}).Order("expiry_date asc")
			if query.BloodGroup != "" {
				model = model.Where("blood_group = ?", query.BloodGroup)
			}
			if query.Component != "" {
				model = model.Where("component = ?", query.Component)
			}
			if query.Status != "" {
				model = model.Where("status = ?", query.Status)
			}
			var rows []models.BloodUnit
			if err := model.Find(&rows).Error; err != nil {
				log.Printf("Error listing blood units: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": rows})
		}).
		POST("", func(ctx *gin.Context) {
			var body types.CreateBloodUnitRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			collected, err := time.Parse(config.DATE_PARSE_FORMAT, body.CollectionDate)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "collection_date must be YYYY-MM-DD"})
				return
			}
			expires, err := time.Parse(config.DATE_PARSE_FORMAT, body.ExpiryDate)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "expiry_date must be YYYY-MM-DD"})
				return
			}
			if !expires.After(collected) {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "expiry_date must be after collection_date"})
				return
			}
			volume := body.Volume
			if volume == 0 {
				volume = 450
			}
			unit := models.BloodUnit{
				UnitID:          utils.GenerateResourceID("BU"),
				BloodGroup:      body.BloodGroup,
				Component:       body.Component,
				DonorID:         body.Donor,
				CollectionDate:  collected,
				ExpiryDate:      expires,
				Status:          types.UNIT_TESTING,
				Volume:          volume,
				StorageLocation: body.StorageLocation,
			}
			if err := db.GetDb().Create(&unit).Error; err != nil {
				log.Printf("Error registering blood unit: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"success": true, "data": unit})
		}).
		PATCH("/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			var body types.UpdateBloodUnitRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			// status changes run through the matcher; location edits do not
			switch body.Status {
			case types.UNIT_AVAILABLE:
				unit, err := gateway.ReleaseBloodUnit(params.ID)
				if err != nil {
					respondAllocatorError(ctx, err)
					return
				}
				ctx.JSON(http.StatusOK, gin.H{"success": true, "data": unit})
				return
			case types.UNIT_DISCARDED:
				unit, err := gateway.DiscardBloodUnit(params.ID)
				if err != nil {
					respondAllocatorError(ctx, err)
					return
				}
				ctx.JSON(http.StatusOK, gin.H{"success": true, "data": unit})
				return
			}
			db := db.GetDb()
			var unit models.BloodUnit
			if err := db.First(&unit, params.ID).Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"success": false, "message": "blood unit not found"})
				return
			}
			if body.StorageLocation != "" {
				if err := db.Model(&unit).Update("storage_location", body.StorageLocation).Error; err != nil {
					ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
					return
				}
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": unit})
		})

	donors := blood.Group("/donors")
	donors.
		GET("", func(ctx *gin.Context) {
			var query struct {
				BloodGroup string `form:"blood_group"`
				Eligible   *bool  `form:"eligible"`
			}
			if err := ctx.BindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			db := db.GetDb()
			model := db.Model(&models.Donor{}).Order("name asc")
			if query.BloodGroup != "" {
				model = model.Where("blood_group = ?", query.BloodGroup)
			}
			if query.Eligible != nil {
				model = model.Where("is_eligible = ?", *query.Eligible)
			}
			var rows []models.Donor
			if err := model.Find(&rows).Error; err != nil {
				log.Printf("Error listing donors: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": rows})
		}).
		POST("", func(ctx *gin.Context) {
			var body types.CreateDonorRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			donor := models.Donor{
				DonorID:    utils.GenerateResourceID("DN"),
				Name:       body.Name,
				BloodGroup: body.BloodGroup,
				Phone:      body.Phone,
				Email:      body.Email,
				IsEligible: true,
			}
			if err := db.GetDb().Create(&donor).Error; err != nil {
				log.Printf("Error registering donor: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"success": true, "data": donor})
		})

	requests := blood.Group("/requests")
	requests.
		GET("", func(ctx *gin.Context) {
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
			model := db.Model(&models.BloodRequest{}).
				Preload("Issues").
				Order("created_at desc")
			if query.Status != "" {
				model = model.Where("status = ?", query.Status)
			}
			if query.Patient != "" {
				model = model.Where("patient_id = ?", query.Patient)
			}
			var rows []models.BloodRequest
			if err := model.Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
				log.Printf("Error listing blood requests: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": rows})
		}).
		POST("", func(ctx *gin.Context) {
			var body types.CreateBloodRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			actor := ctx.GetString("actor")
			request, err := gateway.SubmitBloodRequest(actor, &body)
			if err != nil {
				respondAllocatorError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"success": true, "data": request})
		}).
		PATCH("/:id/fulfill", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			var body types.FulfillBloodRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			actor := ctx.GetString("actor")
			request, err := gateway.FulfillBloodRequest(actor, params.ID, &body)
			if err != nil {
				respondAllocatorError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": request})
		})

	blood.GET("/dashboard", func(ctx *gin.Context) {
		const cacheKey = "dashboard:bloodbank"
		if val := lib.CacheRead(cacheKey); val != "" {
			var stats []allocator.GroupStats
			if err := json.Unmarshal([]byte(val), &stats); err == nil {
				ctx.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
				return
			}
		}
		stats, err := gateway.Blood.InventoryStats(time.Now())
		if err != nil {
			log.Printf("Error computing blood dashboard: %s\n", err.Error())
			ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
			return
		}
		if raw, err := json.Marshal(stats); err == nil {
			lib.CacheWrite(cacheKey, string(raw), 30*time.Second)
		}
		ctx.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
	})
	return blood
}
