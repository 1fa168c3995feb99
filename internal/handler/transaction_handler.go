package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cryptex/internal/domain"
	"cryptex/internal/notifier"
	"cryptex/internal/repository"
	"cryptex/internal/transport/httpdto"
	cryptex_errors "cryptex/pkg/errors"
	"cryptex/pkg/logger"
)

// TransactionHandler is the thin API surface of the transaction layer.
// Status mutations funnel their notifications through the same broker
// path the reaper uses.
type TransactionHandler struct {
	repo     repository.TransactionRepository
	notifier *notifier.Notifier
	logger   *logger.Logger
}

func NewTransactionHandler(repo repository.TransactionRepository, n *notifier.Notifier, l *logger.Logger) *TransactionHandler {
	return &TransactionHandler{repo: repo, notifier: n, logger: l}
}

func (h *TransactionHandler) Create(c *gin.Context) {
	var req httpdto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	buyerID, err1 := uuid.Parse(req.BuyerID)
	vendorID, err2 := uuid.Parse(req.VendorID)
	assetID, err3 := uuid.Parse(req.AssetID)
	if err1 != nil || err2 != nil || err3 != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	t := domain.Transaction{
		BuyerID:  buyerID,
		VendorID: vendorID,
		AssetID:  assetID,
		Quantity: req.Quantity,
		Amount:   req.Amount,
		Status:   domain.StatusPending,
	}

	ctx := c.Request.Context()
	if err := h.repo.Create(ctx, &t); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}

	if err := h.notifier.NotifyCreated(ctx, t); err != nil {
		h.logger.Errorf("trade created notification failed: %s", err)
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.FromTransaction(t)))
}

func (h *TransactionHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid transaction id", "INVALID_REQUEST"))
		return
	}

	t, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, cryptex_errors.ErrNotFound) {
			c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("transaction not found", "NOT_FOUND"))
			return
		}
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromTransaction(t)))
}

// Cancel conditionally transitions the transaction to cancelled. Losing
// the race to another writer (the reaper, or a second API call) is not
// an error; only the winner notifies the room.
func (h *TransactionHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid transaction id", "INVALID_REQUEST"))
		return
	}

	ctx := c.Request.Context()
	won, err := h.repo.CancelIfPending(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}
	if won {
		h.notifier.NotifyCancelled(ctx, id.String(), "user")
		h.logger.InfofCtx(ctx, "transaction %s cancelled by user", id)
	}

	t, err := h.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, cryptex_errors.ErrNotFound) {
			c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("transaction not found", "NOT_FOUND"))
			return
		}
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromTransaction(t)))
}
