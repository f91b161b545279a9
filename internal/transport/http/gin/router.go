package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"boxoffice/internal/domain"
	"boxoffice/internal/reconcile"
	redisrepo "boxoffice/internal/repository/redis"
	"boxoffice/internal/service"
	"boxoffice/internal/service/admin"
	"boxoffice/internal/service/checkout"
	"boxoffice/internal/service/query"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	limiter *redisrepo.SlidingWindowLimiter,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	r.GET("/events", handleListEvents(svcs))
	r.GET("/events/:id", handleGetEvent(svcs))
	r.GET("/events/:id/availability", handleGetAvailability(svcs))
	r.GET("/events/:id/discounts/preview", handlePreviewDiscount(svcs))

	r.POST("/events/:id/purchases", handlePurchaseTicket(svcs, idem, limiter))

	r.GET("/purchases/:id", handleGetPurchase(svcs))
	r.POST("/purchases/:id/cancel", handleCancelPurchase(svcs))

	r.GET("/rates/convert", handleConvertPrice(svcs))

	// Admin-API
	// TODO: add admin middleware
	adm := r.Group("/admin")
	{
		adm.POST("/events", handleCreateEvent(svcs))
		adm.PUT("/events/:id", handleSaveEvent(svcs))
		adm.DELETE("/events/:id", handleDeleteEvent(svcs))
		adm.POST("/events/:id/discounts", handleCreateDiscount(svcs))
		adm.PUT("/discounts/:id", handleUpdateDiscount(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  List events
// @Param    limit  query  int  false "page size"
// @Param    offset query  int  false "offset"
// @Success  200  {array}   EventResponse
// @Router   /events [get]
func handleListEvents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseIntDefault(c.Query("limit"), 50)
		offset := parseIntDefault(c.Query("offset"), 0)

		events, err := svcs.Query.ListEvents(c.Request.Context(), limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}

		out := make([]EventResponse, 0, len(events))
		for _, e := range events {
			out = append(out, newEventResponse(&domain.EventWithTicketTypes{Event: e}))
		}
		// ETag + Cache-Control 15s
		writeJSONWithCache(c, http.StatusOK, out, "public, max-age=15", true)
	}
}

// @Summary  Get event with ticket types
// @Param    id  path  int  true  "Event ID"
// @Success  200  {object}  EventResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /events/{id} [get]
func handleGetEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		e, err := svcs.Query.GetEvent(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 60s
		writeJSONWithCache(c, http.StatusOK, newEventResponse(e), "public, max-age=60", true)
	}
}

// @Summary  Get availability counters
// @Param    id  path  int  true  "Event ID"
// @Success  200  {object}  domain.EventAvailability
// @Failure  404  {object}  ErrorResponse
// @Router   /events/{id}/availability [get]
func handleGetAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		av, err := svcs.Query.Availability(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 15s
		writeJSONWithCache(c, http.StatusOK, av, "public, max-age=15", true)
	}
}

// @Summary  Preview a discount code against a ticket type
// @Param    id              path   int     true  "Event ID"
// @Param    code            query  string  true  "discount code"
// @Param    ticket_type_id  query  string  true  "Ticket type ID (uuid)"
// @Success  200 {object} pricing.DiscountResult
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "code expired / exhausted / not yet valid"
// @Router   /events/{id}/discounts/preview [get]
func handlePreviewDiscount(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		code := strings.TrimSpace(c.Query("code"))
		if code == "" {
			badRequest(c, "missing code")
			return
		}
		ttID, err := uuid.Parse(c.Query("ticket_type_id"))
		if err != nil {
			badRequest(c, "invalid ticket_type_id")
			return
		}

		res, err := svcs.Checkout.ValidateDiscountCode(c.Request.Context(), eventID, code, ttID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// @Summary  Purchase tickets (idempotent)
// @Param    id  path  int  true  "Event ID"
// @Param    req body  PurchaseTicketRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} PurchaseResponse
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "sold out / code exhausted / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /events/{id}/purchases [post]
func handlePurchaseTicket(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	limiter *redisrepo.SlidingWindowLimiter,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req PurchaseTicketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		ttID, err := uuid.Parse(req.TicketTypeID)
		if err != nil {
			badRequest(c, "invalid ticket_type_id")
			return
		}

		if limiter != nil {
			allowed, _, retryAfter, err := limiter.Allow(c.Request.Context(), "ip:"+c.ClientIP())
			if err == nil && !allowed {
				c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
				c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limited"})
				return
			}
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemPurchase(eventID, idemKey)

			if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
				return
			}

			locked, err := idem.AcquireLock(c.Request.Context(), idemStorageKey, 60*time.Second)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		p, quote, err := svcs.Checkout.PurchaseTicket(
			c.Request.Context(),
			eventID,
			ttID,
			req.Quantity,
			req.Code,
			req.DisplayCurrency,
		)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		resp := PurchaseResponse{PurchaseID: p.ID.String(), Quote: *quote}

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  Get purchase
// @Param    id  path  string  true  "Purchase ID (uuid)"
// @Success  200 {object} PurchaseDetailsResponse
// @Failure  404 {object} ErrorResponse
// @Router   /purchases/{id} [get]
func handleGetPurchase(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			badRequest(c, "invalid purchase id")
			return
		}
		p, err := svcs.Query.GetPurchase(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, newPurchaseDetailsResponse(p))
	}
}

// @Summary  Cancel purchase and release inventory
// @Param    id  path  string  true  "Purchase ID (uuid)"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "already cancelled"
// @Router   /purchases/{id}/cancel [post]
func handleCancelPurchase(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			badRequest(c, "invalid purchase id")
			return
		}
		if err := svcs.Checkout.CancelPurchase(c.Request.Context(), id); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Convert an amount between currencies
// @Param    amount query  string  true  "decimal amount"
// @Param    from   query  string  true  "source currency code"
// @Param    to     query  string  true  "target currency code"
// @Success  200 {object} ConvertResponse
// @Failure  400 {object} ErrorResponse "unknown currency"
// @Router   /rates/convert [get]
func handleConvertPrice(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		amount, err := decimal.NewFromString(c.Query("amount"))
		if err != nil {
			badRequest(c, "invalid amount")
			return
		}
		from := strings.ToUpper(strings.TrimSpace(c.Query("from")))
		to := strings.ToUpper(strings.TrimSpace(c.Query("to")))
		if from == "" || to == "" {
			badRequest(c, "missing from/to")
			return
		}

		converted, err := svcs.Checkout.ConvertPrice(c.Request.Context(), amount, from, to)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ConvertResponse{
			Amount:    amount,
			From:      from,
			To:        to,
			Converted: converted,
		})
	}
}

// @Summary  Create event
// @Param    req body  CreateEventRequest true "payload"
// @Success  201 {object} CreateEventResponse
// @Router   /admin/events [post]
func handleCreateEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if err := req.Validate(); err != nil {
			badRequest(c, err.Error())
			return
		}
		starts, err := parseRFC3339(req.StartsAt)
		if err != nil {
			badRequest(c, "invalid starts_at (RFC3339)")
			return
		}

		id, err := svcs.Admin.CreateEvent(c.Request.Context(), &domain.Event{
			Name:         req.Name,
			Starts:       starts,
			Location:     req.Location,
			CurrencyCode: strings.ToUpper(req.CurrencyCode),
			Capacity:     req.Capacity,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreateEventResponse{EventID: id})
	}
}

// @Summary  Save event and reconcile its ticket set
// @Param    id  path  int  true  "Event ID"
// @Param    req body  SaveEventRequest true "payload"
// @Success  200 {object} SaveEventResponse
// @Failure  400 {object} ErrorResponse "validation"
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "inventory conflict"
// @Router   /admin/events/{id} [put]
func handleSaveEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req SaveEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if err := req.Validate(); err != nil {
			badRequest(c, err.Error())
			return
		}
		starts, err := parseRFC3339(req.StartsAt)
		if err != nil {
			badRequest(c, "invalid starts_at (RFC3339)")
			return
		}

		ops, err := svcs.Admin.SaveEvent(
			c.Request.Context(),
			&domain.Event{
				ID:           eventID,
				Name:         req.Name,
				Starts:       starts,
				Location:     req.Location,
				CurrencyCode: strings.ToUpper(req.CurrencyCode),
				Capacity:     req.Capacity,
			},
			desiredTickets(req.TicketTypes),
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, SaveEventResponse{
			EventID:    eventID,
			AppliedOps: newAppliedOps(ops),
		})
	}
}

// @Summary  Delete event
// @Param    id  path  int  true  "Event ID"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Router   /admin/events/{id} [delete]
func handleDeleteEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Admin.DeleteEvent(c.Request.Context(), eventID); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Create discount code
// @Param    id  path  int  true  "Event ID"
// @Param    req body  DiscountCodeRequest true "payload"
// @Success  201 {object} CreateDiscountResponse
// @Failure  409 {object} ErrorResponse "duplicate code"
// @Router   /admin/events/{id}/discounts [post]
func handleCreateDiscount(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		d, ok := bindDiscount(c, eventID)
		if !ok {
			return
		}
		id, err := svcs.Admin.CreateDiscountCode(c.Request.Context(), d)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreateDiscountResponse{CodeID: id.String()})
	}
}

// @Summary  Update discount code
// @Param    id  path  string  true  "Discount code ID (uuid)"
// @Param    req body  DiscountCodeRequest true "payload"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Router   /admin/discounts/{id} [put]
func handleUpdateDiscount(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			badRequest(c, "invalid discount id")
			return
		}
		d, ok := bindDiscount(c, 0)
		if !ok {
			return
		}
		d.ID = id
		if err := svcs.Admin.UpdateDiscountCode(c.Request.Context(), d); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// --- Helpers ---

func bindDiscount(c *gin.Context, eventID int64) (*domain.DiscountCode, bool) {
	var req DiscountCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	if err := req.Validate(); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	validFrom, err := parseRFC3339(req.ValidFrom)
	if err != nil {
		badRequest(c, "invalid valid_from (RFC3339)")
		return nil, false
	}
	var validUntil *time.Time
	if req.ValidUntil != nil {
		t, err := parseRFC3339(*req.ValidUntil)
		if err != nil {
			badRequest(c, "invalid valid_until (RFC3339)")
			return nil, false
		}
		validUntil = &t
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	return &domain.DiscountCode{
		EventID:    eventID,
		Code:       req.Code,
		Kind:       domain.DiscountKind(req.Kind),
		Value:      req.Value,
		ValidFrom:  validFrom,
		ValidUntil: validUntil,
		MaxUses:    req.MaxUses,
		Active:     active,
	}, true
}

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var conflict reconcile.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: conflict.Error()})
		return
	}

	var invalid reconcile.ValidationError
	if errors.As(err, &invalid) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: invalid.Error()})
		return
	}

	switch {
	// admin service
	case errors.Is(err, admin.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
	case errors.Is(err, admin.ErrDiscountNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "discount code not found"})
	case errors.Is(err, admin.ErrDiscountConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "discount code already exists"})
	case errors.Is(err, admin.ErrCapacityExceeded):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "ticket quantities exceed event capacity"})
	case errors.Is(err, admin.ErrInventoryConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "inventory conflict"})
	case errors.Is(err, admin.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed"})
	// query service
	case errors.Is(err, query.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
	case errors.Is(err, query.ErrPurchaseNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "purchase not found"})
	// checkout service
	case errors.Is(err, checkout.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
	case errors.Is(err, checkout.ErrTicketTypeNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket type not found"})
	case errors.Is(err, checkout.ErrPurchaseNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "purchase not found"})
	case errors.Is(err, checkout.ErrSoldOut):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "not enough tickets available"})
	case errors.Is(err, checkout.ErrAlreadyCancelled):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "purchase already cancelled"})
	case errors.Is(err, checkout.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid quantity"})
	case errors.Is(err, checkout.ErrCodeNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "discount code not found"})
	case errors.Is(err, checkout.ErrCodeNotYetValid):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "discount code not yet valid"})
	case errors.Is(err, checkout.ErrCodeExpired):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "discount code expired"})
	case errors.Is(err, checkout.ErrCodeExhausted):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "discount code exhausted"})
	case errors.Is(err, checkout.ErrUnknownCurrency):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown currency"})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
