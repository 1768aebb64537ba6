package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Edu-Lacalle/BankingSystemApplication/internal/domain"
	"github.com/Edu-Lacalle/BankingSystemApplication/internal/gateway"
	"github.com/Edu-Lacalle/BankingSystemApplication/internal/ident"
	"github.com/Edu-Lacalle/BankingSystemApplication/internal/middleware"
	"github.com/Edu-Lacalle/BankingSystemApplication/internal/saga"
)

// TransactionRouter routes account and transaction requests through the
// load-adaptive gateway.
type TransactionRouter interface {
	CreateAccount(ctx context.Context, req domain.AccountCreationRequest) (gateway.AccountDecision, error)
	Credit(ctx context.Context, req domain.TransactionRequest) (gateway.TransactionDecision, error)
	Debit(ctx context.Context, req domain.TransactionRequest) (gateway.TransactionDecision, error)
	Status() gateway.LoadStatus
}

// AccountQuerier serves account lookups.
type AccountQuerier interface {
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
}

// Transferrer runs two-account transfers.
type Transferrer interface {
	Transfer(ctx context.Context, req saga.TransferRequest) (*saga.Result, error)
}

// BankingHandler handles the HTTP surface of the banking gateway.
type BankingHandler struct {
	router    TransactionRouter
	queries   AccountQuerier
	transfers Transferrer
}

type CreateAccountRequest struct {
	Name       string `json:"name" validate:"required"`
	NationalID string `json:"nationalId" validate:"required,len=11,numeric"`
	BirthDate  string `json:"birthDate" validate:"required,datetime=2006-01-02"`
	Email      string `json:"email" validate:"omitempty,email"`
	Phone      string `json:"phone" validate:"omitempty,numeric,min=10,max=11"`
}

type TransactionRequest struct {
	AccountID string          `json:"accountId" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
}

type AsyncAcceptedResponse struct {
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
	Mode      string `json:"mode"`
}

func NewBankingHandler(router TransactionRouter, queries AccountQuerier, transfers Transferrer) *BankingHandler {
	return &BankingHandler{router: router, queries: queries, transfers: transfers}
}

func (h *BankingHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}
	birthDate, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid birth date")
		return
	}

	decision, err := h.router.CreateAccount(c.Request.Context(), domain.AccountCreationRequest{
		Name:       req.Name,
		NationalID: req.NationalID,
		BirthDate:  birthDate,
		Email:      req.Email,
		Phone:      req.Phone,
	})
	if err != nil {
		respondWithDomainError(c, err)
		return
	}
	if decision.Mode == gateway.ModeAsync {
		c.JSON(http.StatusAccepted, AsyncAcceptedResponse{
			RequestID: decision.RequestID,
			Status:    "PROCESSING",
			Mode:      decision.Mode,
		})
		return
	}
	c.JSON(http.StatusCreated, decision.Account)
}

func (h *BankingHandler) Credit(c *gin.Context) {
	h.transaction(c, h.router.Credit)
}

func (h *BankingHandler) Debit(c *gin.Context) {
	h.transaction(c, h.router.Debit)
}

func (h *BankingHandler) transaction(c *gin.Context, route func(context.Context, domain.TransactionRequest) (gateway.TransactionDecision, error)) {
	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}
	if !ident.IsAccountID(req.AccountID) {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid account id")
		return
	}
	// The validator cannot range-check a decimal, so the amount is
	// checked by hand.
	if !req.Amount.IsPositive() {
		middleware.RespondWithError(c, http.StatusBadRequest, "Amount must be positive")
		return
	}

	decision, err := route(c.Request.Context(), domain.TransactionRequest{
		AccountID: req.AccountID,
		Amount:    req.Amount,
		Reference: req.Reference,
	})
	if err != nil {
		respondWithDomainError(c, err)
		return
	}
	if decision.Mode == gateway.ModeAsync {
		c.JSON(http.StatusAccepted, AsyncAcceptedResponse{
			RequestID: decision.RequestID,
			Status:    "PROCESSING",
			Mode:      decision.Mode,
		})
		return
	}
	if decision.Result.Status == domain.StatusRejected {
		c.JSON(http.StatusUnprocessableEntity, decision.Result)
		return
	}
	c.JSON(http.StatusOK, decision.Result)
}

// Transfer always answers 200 with the saga record; the transfer outcome
// lives in its status field.
func (h *BankingHandler) Transfer(c *gin.Context) {
	var req saga.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	result, err := h.transfers.Transfer(c.Request.Context(), req)
	if err != nil {
		respondWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BankingHandler) GetAccount(c *gin.Context) {
	id := c.Param("id")
	if !ident.IsAccountID(id) {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid account id")
		return
	}
	account, err := h.queries.GetAccount(c.Request.Context(), id)
	if err != nil {
		respondWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *BankingHandler) LoadStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.router.Status())
}

func respondWithDomainError(c *gin.Context, err error) {
	var derr *domain.Error
	status := http.StatusInternalServerError
	message := "Internal server error"
	if errors.As(err, &derr) {
		message = derr.Message
		switch derr.Kind {
		case domain.KindValidation:
			status = http.StatusBadRequest
		case domain.KindNotFound:
			status = http.StatusNotFound
		case domain.KindDuplicate:
			status = http.StatusConflict
		case domain.KindBusinessRejection:
			status = http.StatusUnprocessableEntity
		case domain.KindThrottled:
			status = http.StatusTooManyRequests
			c.Header("Retry-After", "3")
		case domain.KindTransient:
			status = http.StatusServiceUnavailable
		case domain.KindTimeout:
			status = http.StatusGatewayTimeout
		}
	}
	middleware.RespondWithError(c, status, message)
}
