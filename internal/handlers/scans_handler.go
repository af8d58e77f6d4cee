package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/scan2list/internal/scanner"
	"github.com/imrishuroy/scan2list/internal/validation"
)

// ErrDuplicateScan is returned by a Submitter that debounced the barcode.
var ErrDuplicateScan = errors.New("duplicate scan")

// Submitter hands a barcode to whatever fulfills it.
type Submitter interface {
	Submit(ctx context.Context, barcode string) (scanner.Scan, error)
}

// HandlerConfig groups dependencies for the scans handler.
type HandlerConfig struct {
	Submitter Submitter
	Logger    *zap.Logger
}

// RegisterScanRoutes registers the scan intake routes.
func RegisterScanRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()

	r.POST("/scans", func(c *gin.Context) {
		var req validation.ScanRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		scan, err := cfg.Submitter.Submit(c.Request.Context(), req.Barcode)
		switch {
		case errors.Is(err, ErrDuplicateScan):
			c.JSON(http.StatusConflict, gin.H{"error": "duplicate_scan", "barcode": req.Barcode})
			return
		case errors.Is(err, scanner.ErrIntakeClosed):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "intake_closed"})
			return
		case err != nil:
			cfg.Logger.Error("scan submit failed", zap.String("barcode", req.Barcode), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "submit_failed", "detail": err.Error()})
			return
		}

		c.Header("Location", fmt.Sprintf("/scans/%s", scan.ID))
		c.JSON(http.StatusAccepted, gin.H{"scan_id": scan.ID, "barcode": scan.Barcode})
	})
}

// SetupRouter builds the intake engine with a health route.
func SetupRouter(cfg HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	RegisterScanRoutes(r, cfg)
	return r
}
