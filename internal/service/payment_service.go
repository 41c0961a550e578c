package service

import (
	"context"
	"crypto/sha512"
	"errors"
	"fmt"
	"os"
	"time"

	"arivu-ai-be/internal/dto"
	"arivu-ai-be/internal/entity"
	"arivu-ai-be/internal/repository/specification"
	"arivu-ai-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

type IPaymentService interface {
	Checkout(ctx context.Context, userId uuid.UUID, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	HandleNotification(ctx context.Context, req *dto.MidtransWebhookRequest) error
}

type paymentService struct {
	uowFactory   unitofwork.RepositoryFactory
	tierService  ITierService
	proPlanPrice int64
}

func NewPaymentService(uowFactory unitofwork.RepositoryFactory, tierService ITierService, proPlanPrice int64) IPaymentService {
	return &paymentService{
		uowFactory:   uowFactory,
		tierService:  tierService,
		proPlanPrice: proPlanPrice,
	}
}

// Checkout opens a Midtrans Snap transaction for the pro upgrade.
func (s *paymentService) Checkout(ctx context.Context, userId uuid.UUID, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}

	order := &entity.PaymentOrder{
		Id:        uuid.New(),
		UserId:    userId,
		Amount:    s.proPlanPrice,
		Status:    entity.PaymentStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := uow.PaymentRepository().Create(ctx, order); err != nil {
		return nil, err
	}

	// External service call after the order row is committed.
	var sClient snap.Client
	serverKey := os.Getenv("MIDTRANS_SERVER_KEY")
	env := midtrans.Sandbox
	if os.Getenv("MIDTRANS_IS_PRODUCTION") == "true" {
		env = midtrans.Production
	}
	sClient.New(serverKey, env)

	frontendURL := os.Getenv("FRONTEND_URL")
	finishRedirectURL := fmt.Sprintf("%s/app?payment=success", frontendURL)

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  order.Id.String(),
			GrossAmt: order.Amount,
		},
		CreditCard: &snap.CreditCardDetails{
			Secure: true,
		},
		Callbacks: &snap.Callbacks{
			Finish: finishRedirectURL,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.FirstName,
			LName: req.LastName,
			Email: req.Email,
			Phone: req.Phone,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    "pro-plan",
				Price: order.Amount,
				Qty:   1,
				Name:  "Arivu AI Pro Plan",
			},
		},
		EnabledPayments: snap.AllSnapPaymentType,
	}

	snapResp, midErr := sClient.CreateTransaction(snapReq)
	if midErr != nil {
		return nil, fmt.Errorf("midtrans error: %v", midErr.GetMessage())
	}

	return &dto.CheckoutResponse{
		OrderId:         order.Id,
		SnapToken:       snapResp.Token,
		SnapRedirectUrl: snapResp.RedirectURL,
	}, nil
}

// HandleNotification processes the Midtrans webhook. The signature is
// SHA512(order_id + status_code + gross_amount + server_key).
func (s *paymentService) HandleNotification(ctx context.Context, req *dto.MidtransWebhookRequest) error {
	serverKey := os.Getenv("MIDTRANS_SERVER_KEY")
	if serverKey == "" {
		return fmt.Errorf("server configuration error")
	}

	signatureInput := req.OrderId + req.StatusCode + req.GrossAmount + serverKey
	expectedSignature := fmt.Sprintf("%x", sha512.Sum512([]byte(signatureInput)))

	if req.SignatureKey != expectedSignature {
		return fmt.Errorf("invalid signature")
	}

	orderId, err := uuid.Parse(req.OrderId)
	if err != nil {
		return fmt.Errorf("invalid order id format")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	order, err := uow.PaymentRepository().FindOne(ctx, specification.ByID{ID: orderId})
	if err != nil {
		return err
	}
	if order == nil {
		return fmt.Errorf("order not found")
	}

	var newStatus entity.PaymentStatus
	switch req.TransactionStatus {
	case "capture", "settlement":
		newStatus = entity.PaymentStatusPaid
	case "deny", "cancel", "expire":
		newStatus = entity.PaymentStatusFailed
	case "pending":
		return nil
	default:
		return nil
	}

	// Webhook retries must be idempotent.
	if order.Status == newStatus {
		return nil
	}

	order.Status = newStatus
	order.UpdatedAt = time.Now()
	if err := uow.PaymentRepository().Update(ctx, order); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	if newStatus == entity.PaymentStatusPaid {
		return s.tierService.Upgrade(ctx, order.UserId, "payment")
	}
	return nil
}
