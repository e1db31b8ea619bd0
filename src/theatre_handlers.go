package main

import (
	"log"
	"net/http"

	"hms/src/allocator"
	"hms/src/db"
	"hms/src/models"
	"hms/src/types"
	"hms/src/utils"

	"github.com/gin-gonic/gin"
)

func theatreHandlers(g *gin.RouterGroup, gateway *allocator.AllocationGateway) *gin.RouterGroup {
	theatres := g.Group("/theatres")
	theatres.
		GET("", func(ctx *gin.Context) {
			var query struct {
				Status string `form:"status"`
				Type   string `form:"type"`
			}
			if err := ctx.BindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			db := db.GetDb()
			model := db.Model(&models.Theatre{}).Order("number asc")
			if query.Status != "" {
				model = model.Where("status = ?", query.Status)
			}
			if query.Type != "" {
				model = model.Where("type = ?", query.Type)
			}
			var rows []models.Theatre
			if err := model.Find(&rows).Error; err != nil {
				log.Printf("Error listing theatres: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": rows})
		}).
		POST("", func(ctx *gin.Context) {
			var body types.CreateTheatreRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			theatre := models.Theatre{
				Name:   body.Name,
				Number: body.Number,
				Floor:  body.Floor,
				Type:   body.Type,
				Status: types.THEATRE_AVAILABLE,
			}
			if err := db.GetDb().Create(&theatre).Error; err != nil {
				log.Printf("Error registering theatre: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"success": true, "data": theatre})
		}).
		PUT("/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			var body types.UpdateTheatreRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			db := db.GetDb()
			var theatre models.Theatre
			if err := db.First(&theatre, params.ID).Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"success": false, "message": "theatre not found"})
				return
			}
			updates := map[string]any{}
			if body.Number != 0 {
				updates["number"] = body.Number
			}
			if body.Floor != 0 {
				updates["floor"] = body.Floor
			}
			if body.Type != "" {
				updates["type"] = body.Type
			}
			if len(updates) > 0 {
				if err := db.Model(&theatre).Updates(updates).Error; err != nil {
					ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
					return
				}
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": theatre})
		})

	surgeries := g.Group("/surgeries")
	surgeries.
		GET("", func(ctx *gin.Context) {
			var query struct {
				types.PageQuery
				Date    string `form:"date"`
				Theatre uint   `form:"theatre"`
				Surgeon string `form:"surgeon"`
				Status  string `form:"status"`
			}
			if err := ctx.BindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			offset, limit := utils.Paginate(query.Page, query.Limit)
			db := db.GetDb()
			model := db.Model(&models.Surgery{}).
				Preload("Theatre").
				Order("scheduled_date asc, start_time asc")
			if query.Date != "" {
				date, err := utils.ParseDateOnly(query.Date)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "date must be YYYY-MM-DD"})
					return
				}
				model = model.Where("scheduled_date = ?", date)
			}
			if query.Theatre != 0 {
				model = model.Where("theatre_id = ?", query.Theatre)
			}
			if query.Surgeon != "" {
				model = model.Where("lead_surgeon = ?", query.Surgeon)
			}
			if query.Status != "" {
				model = model.Where("status = ?", query.Status)
			}
			var rows []models.Surgery
			if err := model.Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
				log.Printf("Error listing surgeries: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": rows})
		}).
		POST("", func(ctx *gin.Context) {
			var body types.ScheduleSurgeryRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			actor := ctx.GetString("actor")
			surgery, err := gateway.ScheduleSurgery(actor, &body)
			if err != nil {
				respondAllocatorError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"success": true, "data": surgery})
		}).
		PATCH("/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			var body types.UpdateSurgeryStatusRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
				return
			}
			actor := ctx.GetString("actor")
			surgery, err := gateway.UpdateSurgeryStatus(actor, params.ID, body.Status)
			if err != nil {
				respondAllocatorError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": surgery})
		})
	return theatres
}
