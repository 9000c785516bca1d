// Package api serves the label pipeline over HTTP and WebSocket.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/thereceipt/label-engine/internal/barcodeid"
	"github.com/thereceipt/label-engine/internal/catalog"
	"github.com/thereceipt/label-engine/internal/export"
	"github.com/thereceipt/label-engine/internal/layout"
	"github.com/thereceipt/label-engine/internal/printer"
	"github.com/thereceipt/label-engine/internal/registry"
	"github.com/thereceipt/label-engine/pkg/printopts"
)

// Deps are the collaborators the server exposes.
type Deps struct {
	Catalog  catalog.Source
	Pipeline *export.Pipeline
	Codec    *barcodeid.Codec
	Registry *registry.Registry
	Queue    *printer.Queue
	Hub      *Hub
	Logger   *slog.Logger
}

// Server is the API server.
type Server struct {
	Deps
	router   *gin.Engine
	validate *validator.Validate
}

// NewServer creates the server and its routes.
func NewServer(d Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	if d.Hub == nil {
		d.Hub = NewHub(d.Logger)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(d.Logger), corsMiddleware())

	s := &Server{
		Deps:     d,
		router:   router,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	s.Hub.onMessage = s.handleMessage
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router.GET("/products", s.handleGetProducts)
	s.router.GET("/products/:id/image/:kind", s.handleProductImage)

	s.router.POST("/print/grid", s.handlePrintGrid)
	s.router.POST("/print/labels", s.handlePrintLabels)
	s.router.POST("/export/archive", s.handleExportArchive)

	s.router.GET("/barcodes/categories", s.handleCategories)
	s.router.POST("/barcodes/generate", s.handleGenerate)
	s.router.POST("/barcodes/convert", s.handleConvert)
	s.router.POST("/barcodes/suffix", s.handleSuffix)

	s.router.GET("/printers", s.handleGetPrinters)
	s.router.GET("/printers/serial-ports", s.handleSerialPorts)
	s.router.POST("/printer/network", s.handleAddNetworkPrinter)
	s.router.POST("/printer/serial", s.handleAddSerialPrinter)
	s.router.POST("/printer/:id/name", s.handleSetPrinterName)
	s.router.POST("/print/dispatch", s.handleDispatch)
	s.router.GET("/jobs", s.handleGetJobs)
	s.router.GET("/job/:id", s.handleGetJob)

	s.router.GET("/ws", s.Hub.handle)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is canceled, then drains open requests for
// at most shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// status maps pipeline and store errors to HTTP codes.
func status(err error) int {
	switch {
	case errors.Is(err, export.ErrNothingToPrint):
		return http.StatusUnprocessableEntity
	case errors.Is(err, export.ErrRenderingUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, printopts.ErrInvalid),
		errors.Is(err, layout.ErrUnknownSize),
		errors.Is(err, barcodeid.ErrMalformed):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, registry.ErrNotFound),
		errors.Is(err, printer.ErrJobNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	code := status(err)
	if code >= http.StatusInternalServerError {
		s.Logger.Error("request failed", slog.String("path", c.FullPath()), slog.Any("error", err))
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func (s *Server) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// selection loads the catalogue and keeps the requested ids.
func (s *Server) selection(c *gin.Context, ids []string) ([]catalog.Product, error) {
	products, err := s.Catalog.Products(c.Request.Context())
	if err != nil {
		return nil, err
	}
	return layout.Subset(products, ids), nil
}

func (s *Server) handleGetProducts(c *gin.Context) {
	products, err := s.Catalog.Products(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// handlePrintGrid takes PrintOptions as the body and returns a PDF.
func (s *Server) handlePrintGrid(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.badRequest(c, err)
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}
	opts, err := printopts.Parse(body)
	if err != nil {
		s.badRequest(c, err)
		return
	}

	products, err := s.Catalog.Products(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	var buf bytes.Buffer
	report, err := s.Pipeline.GridPDF(products, *opts, &buf)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="labels.pdf"`)
	c.Header("X-Label-Pages", strconv.Itoa(report.Pages))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

type labelsRequest struct {
	ProductIDs []string `json:"product_ids"`
	Kind       string   `json:"kind" binding:"required,oneof=barcode label"`
	Copies     int      `json:"copies" binding:"omitempty,min=1,max=1000"`
}

func (r labelsRequest) copies() int {
	if r.Copies == 0 {
		return 1
	}
	return r.Copies
}

func (s *Server) handlePrintLabels(c *gin.Context) {
	var req labelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	products, err := s.selection(c, req.ProductIDs)
	if err != nil {
		s.fail(c, err)
		return
	}

	var buf bytes.Buffer
	if _, err := s.Pipeline.LabelDocument(products, export.LabelKind(req.Kind), req.copies(), &buf); err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) handleExportArchive(c *gin.Context) {
	var req struct {
		ProductIDs []string `json:"product_ids"`
		Kind       string   `json:"kind" binding:"required,oneof=barcode barcode-info price-label"`
		Batch      int      `json:"batch" binding:"omitempty,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	if req.Batch == 0 {
		req.Batch = 1
	}
	products, err := s.selection(c, req.ProductIDs)
	if err != nil {
		s.fail(c, err)
		return
	}

	var buf bytes.Buffer
	name, err := s.Pipeline.Archive(products, export.ImageKind(req.Kind), req.Batch, &buf)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, name))
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

func (s *Server) handleProductImage(c *gin.Context) {
	kind, err := export.ParseImageKind(c.Param("kind"))
	if err != nil {
		s.badRequest(c, err)
		return
	}
	prod, err := s.Catalog.Product(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	var buf bytes.Buffer
	name, err := s.Pipeline.SingleImage(prod, kind, &buf)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, name))
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) handleCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": barcodeid.Categories()})
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req struct {
		Category string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	id := s.Codec.Generate(req.Category)
	c.JSON(http.StatusOK, gin.H{"barcode": id.String(), "suffix": id.Suffix})
}

func (s *Server) handleConvert(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"barcode": s.Codec.ConvertLegacyToCompact(req.Code)})
}

func (s *Server) handleSuffix(c *gin.Context) {
	var req struct {
		Code     string `json:"code" binding:"required"`
		Category string `json:"category" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	code, err := barcodeid.WithSuffix(req.Code, req.Category)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"barcode": code})
}

func (s *Server) handleGetPrinters(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"printers": s.Registry.List()})
}

func (s *Server) handleSerialPorts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ports": printer.SerialPorts()})
}

func (s *Server) addPrinter(c *gin.Context, info registry.Info) {
	if err := s.validate.Struct(info); err != nil {
		s.badRequest(c, err)
		return
	}
	entry, err := s.Registry.Register(info)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "printer_id": entry.ID, "printer": entry})
}

func (s *Server) handleAddNetworkPrinter(c *gin.Context) {
	var info registry.Info
	if err := c.ShouldBindJSON(&info); err != nil {
		s.badRequest(c, err)
		return
	}
	info.Type = registry.TypeNetwork
	if info.Port == 0 {
		info.Port = 9100
	}
	if info.Description == "" {
		info.Description = fmt.Sprintf("Network: %s:%d", info.Host, info.Port)
	}
	s.addPrinter(c, info)
}

func (s *Server) handleAddSerialPrinter(c *gin.Context) {
	var info registry.Info
	if err := c.ShouldBindJSON(&info); err != nil {
		s.badRequest(c, err)
		return
	}
	info.Type = registry.TypeSerial
	if info.Description == "" {
		info.Description = "Serial: " + info.Device
	}
	s.addPrinter(c, info)
}

func (s *Server) handleSetPrinterName(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, errors.New("name is required"))
		return
	}
	if err := s.Registry.SetName(c.Param("id"), req.Name); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type dispatchRequest struct {
	PrinterID string `json:"printer_id" binding:"required"`
	labelsRequest
}

// dispatch renders labels and queues them for a printer.
func (s *Server) dispatch(ctx context.Context, req dispatchRequest) (string, error) {
	if _, err := s.Registry.Get(req.PrinterID); err != nil {
		return "", err
	}
	products, err := s.Catalog.Products(ctx)
	if err != nil {
		return "", err
	}
	products = layout.Subset(products, req.ProductIDs)

	imgs, err := s.Pipeline.LabelRasters(products, export.LabelKind(req.Kind), req.copies())
	if err != nil {
		return "", err
	}
	return s.Queue.Enqueue(req.PrinterID, imgs), nil
}

func (s *Server) handleDispatch(c *gin.Context) {
	var req dispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	jobID, err := s.dispatch(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "job_id": jobID})
}

func (s *Server) handleGetJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": s.Queue.Jobs()})
}

func (s *Server) handleGetJob(c *gin.Context) {
	job, err := s.Queue.Job(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// handleMessage serves WebSocket requests. Only dispatch is accepted.
func (s *Server) handleMessage(c *wsClient, msg WSMessage) {
	if msg.Event != EventDispatch {
		c.sendError("unknown event: " + msg.Event)
		return
	}

	req := dispatchRequest{labelsRequest: labelsRequest{Kind: string(export.PriceLabel), Copies: 1}}
	if v, ok := msg.Data["printer_id"].(string); ok {
		req.PrinterID = v
	}
	if v, ok := msg.Data["kind"].(string); ok {
		req.Kind = v
	}
	if v, ok := msg.Data["copies"].(float64); ok {
		req.Copies = int(v)
	}
	if ids, ok := msg.Data["product_ids"].([]any); ok {
		for _, id := range ids {
			if str, ok := id.(string); ok {
				req.ProductIDs = append(req.ProductIDs, str)
			}
		}
	}
	if req.PrinterID == "" {
		c.sendError("printer_id is required")
		return
	}
	if _, err := export.ParseLabelKind(req.Kind); err != nil {
		c.sendError(err.Error())
		return
	}

	jobID, err := s.dispatch(context.Background(), req)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.sendResponse(map[string]any{"success": true, "job_id": jobID})
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Debug("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
