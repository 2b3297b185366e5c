package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourname/medtracker/internal"
	"github.com/yourname/medtracker/internal/auth"
	"github.com/yourname/medtracker/internal/ledger"
)

func ledgerFor(c *gin.Context, app App) (*ledger.Ledger, bool) {
	led, err := app.Ledgers().For(auth.SessionFrom(c))
	if err != nil {
		HandleError(c, app.Logger(), err, "No authenticated user")
		return nil, false
	}
	return led, true
}

func ListMedications(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		led, ok := ledgerFor(c, app)
		if !ok {
			return
		}
		meds, err := led.ListMedications(c.Request.Context())
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to fetch medications")
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, meds, nil)
	}
}

func PostMedication(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		led, ok := ledgerFor(c, app)
		if !ok {
			return
		}
		var input ledger.MedicationInput
		if err := c.ShouldBindJSON(&input); err != nil {
			HandleError(c, app.Logger(), &internal.ValidationError{Err: err}, "Invalid JSON")
			return
		}
		med, err := led.AddMedication(c.Request.Context(), &input)
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to add medication")
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusCreated, med, nil)
	}
}

func PatchMedication(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		led, ok := ledgerFor(c, app)
		if !ok {
			return
		}
		var patch ledger.MedicationPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			HandleError(c, app.Logger(), &internal.ValidationError{Err: err}, "Invalid JSON")
			return
		}
		med, err := led.UpdateMedication(c.Request.Context(), c.Param("id"), &patch)
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to update medication")
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, med, nil)
	}
}

func DeleteMedication(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		led, ok := ledgerFor(c, app)
		if !ok {
			return
		}
		if err := led.DeleteMedication(c.Request.Context(), c.Param("id")); err != nil {
			HandleError(c, app.Logger(), err, "Failed to delete medication")
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, nil, map[string]any{"deleted": c.Param("id")})
	}
}

func PostTaken(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		led, ok := ledgerFor(c, app)
		if !ok {
			return
		}
		var input ledger.MarkTakenInput
		if err := c.ShouldBindJSON(&input); err != nil {
			HandleError(c, app.Logger(), &internal.ValidationError{Err: err}, "Invalid JSON")
			return
		}
		log, err := led.MarkTaken(c.Request.Context(), c.Param("id"), &input)
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to mark medication as taken")
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, log, nil)
	}
}

func ListIntakeLogs(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		led, ok := ledgerFor(c, app)
		if !ok {
			return
		}
		logs, err := led.ListIntakeLogs(c.Request.Context())
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to fetch intake logs")
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, logs, nil)
	}
}

func GetAdherenceStats(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		led, ok := ledgerFor(c, app)
		if !ok {
			return
		}
		stats, err := led.Stats(c.Request.Context())
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to compute adherence stats")
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, stats, nil)
	}
}
