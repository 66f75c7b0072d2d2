package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"marketplace-escrow-engine/internal/domain/auction"
	"marketplace-escrow-engine/internal/domain/shared"
	"marketplace-escrow-engine/internal/ports/inbound"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Handler contains the HTTP request handlers for the exposed operations
type Handler struct {
	bids     inbound.BidService
	auctions inbound.AuctionService
	wallets  inbound.WalletService
	logger   zerolog.Logger
}

type HandlerParams struct {
	Bids     inbound.BidService
	Auctions inbound.AuctionService
	Wallets  inbound.WalletService
	Logger   zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(params HandlerParams) *Handler {
	return &Handler{
		bids:     params.Bids,
		auctions: params.Auctions,
		wallets:  params.Wallets,
		logger:   params.Logger.With().Str("component", "http_api").Logger(),
	}
}

// Routes configures all HTTP routes
func (h *Handler) Routes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/auctions", h.CreateAuction).Methods("POST")
	api.HandleFunc("/auctions", h.ListAuctions).Methods("GET")
	api.HandleFunc("/auctions/{id}", h.GetAuctionStatus).Methods("GET")
	api.HandleFunc("/auctions/{id}/bids", h.GetBidHistory).Methods("GET")
	api.HandleFunc("/auctions/{id}/bids", h.PlaceBid).Methods("POST")
	api.HandleFunc("/wallets/{userId}", h.GetWallet).Methods("GET")
	api.HandleFunc("/wallets/{userId}/deposit", h.Deposit).Methods("POST")

	router.Use(h.loggingMiddleware)

	return router
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "escrow-engine",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// CreateAuction lists an item for auction
func (h *Handler) CreateAuction(w http.ResponseWriter, r *http.Request) {
	var req inbound.CreateAuctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := h.auctions.CreateAuction(r.Context(), req)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, a)
}

// ListAuctions retrieves auctions, optionally filtered by status
func (h *Handler) ListAuctions(w http.ResponseWriter, r *http.Request) {
	var status *auction.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := auction.Status(raw)
		status = &s
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	auctions, err := h.auctions.ListAuctions(r.Context(), status, page, pageSize)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, auctions)
}

// GetAuctionStatus retrieves an auction with its highest active bid
func (h *Handler) GetAuctionStatus(w http.ResponseWriter, r *http.Request) {
	auctionID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	status, err := h.auctions.GetAuctionStatus(r.Context(), auctionID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, status)
}

// GetBidHistory retrieves all bids on an auction
func (h *Handler) GetBidHistory(w http.ResponseWriter, r *http.Request) {
	auctionID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	bids, err := h.auctions.GetBidHistory(r.Context(), auctionID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, bids)
}

type placeBidBody struct {
	UserID uuid.UUID `json:"user_id"`
	Amount int64     `json:"amount"`
}

// PlaceBid places a bid on an auction
func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	auctionID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var body placeBidBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b, err := h.bids.PlaceBid(r.Context(), inbound.PlaceBidRequest{
		AuctionID: auctionID,
		UserID:    body.UserID,
		Amount:    body.Amount,
	})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, b)
}

type depositBody struct {
	Amount int64 `json:"amount"`
}

// Deposit credits funds into a user's wallet
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "userId")
	if !ok {
		return
	}

	var body depositBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wlt, err := h.wallets.Deposit(r.Context(), userID, body.Amount)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, wlt)
}

// GetWallet retrieves a user's wallet
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "userId")
	if !ok {
		return
	}

	wlt, err := h.wallets.GetWallet(r.Context(), userID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, wlt)
}

// respondDomainError maps domain errors onto HTTP status codes
func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrAuctionNotFound),
		errors.Is(err, shared.ErrItemNotFound),
		errors.Is(err, shared.ErrUserNotFound),
		errors.Is(err, shared.ErrWalletNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shared.ErrAuctionNotActive),
		errors.Is(err, shared.ErrItemNotAvailable):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, shared.ErrBidTooLow),
		errors.Is(err, shared.ErrInsufficientFunds),
		errors.Is(err, shared.ErrInvalidAmount),
		errors.Is(err, shared.ErrInvalidPrice),
		errors.Is(err, shared.ErrInvalidStartTime),
		errors.Is(err, shared.ErrInvalidTimeFormat):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error().Err(err).Msg("Internal error handling request")
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

func pathUUID(w http.ResponseWriter, r *http.Request, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[key])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid "+key)
		return uuid.Nil, false
	}
	return id, true
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
