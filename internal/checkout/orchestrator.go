package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/joao-fontenele/digital-storefront/internal/auth"
	"github.com/joao-fontenele/digital-storefront/internal/cart"
	"github.com/joao-fontenele/digital-storefront/internal/catalog"
	"github.com/joao-fontenele/digital-storefront/internal/domain"
	"github.com/joao-fontenele/digital-storefront/internal/payments"
)

var tracer = otel.Tracer("checkout")

type PrincipalSource interface {
	CurrentPrincipal(ctx context.Context) (auth.Principal, bool)
}

type OrderCreator interface {
	Create(ctx context.Context, order *domain.Order) error
}

type PaymentCreator interface {
	Create(ctx context.Context, in payments.CreatePaymentInput) (*domain.Payment, error)
}

type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Cart is the session cart a submission reads from and clears on success.
type Cart interface {
	Snapshot() cart.Snapshot
	ClearCart()
}

// PaymentChoice is satisfied by *catalog.Selector.
type PaymentChoice interface {
	Selection() catalog.Selection
	Method() (domain.PaymentMethod, *domain.BankAccount)
}

type Request struct {
	SessionID string
	Cart      Cart
	Shipping  domain.ShippingInfo
	Payment   PaymentChoice
}

type Result struct {
	State      State
	Order      *domain.Order
	Payment    *domain.Payment
	RedirectTo string
	// Trace lists every state the submission passed through, Idle first.
	Trace []State
}

type Option func(*Orchestrator)

func WithPublisher(p Publisher) Option {
	return func(o *Orchestrator) {
		o.publisher = p
	}
}

func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// Orchestrator runs a checkout submission: validate, insert the order, insert
// its payment, then clear the cart. The two inserts are separate statements;
// a payment failure leaves a pending order behind.
type Orchestrator struct {
	principals PrincipalSource
	orders     OrderCreator
	payments   PaymentCreator
	publisher  Publisher
	metrics    *Metrics
	logger     *slog.Logger
	now        func() time.Time

	inFlight sync.Map
}

func NewOrchestrator(principals PrincipalSource, orders OrderCreator, payments PaymentCreator, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		principals: principals,
		orders:     orders,
		payments:   payments,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ConfirmationPath is where a successful submission sends the buyer.
func ConfirmationPath(orderID string) string {
	return "/checkout/" + orderID + "/confirmation"
}

// Submit runs one submission to a terminal state. An empty cart or a
// submission already running for the session is rejected with a nil Result.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (res *Result, err error) {
	start := o.now()
	defer func() {
		o.metrics.record(ctx, outcomeOf(err), o.now().Sub(start))
	}()

	snapshot := req.Cart.Snapshot()
	if snapshot.Empty() {
		return nil, ErrEmptyCart
	}

	if req.SessionID != "" {
		if _, busy := o.inFlight.LoadOrStore(req.SessionID, struct{}{}); busy {
			return nil, ErrSubmissionInProgress
		}
		defer o.inFlight.Delete(req.SessionID)
	}

	ctx, span := tracer.Start(ctx, "checkout.submit")
	defer span.End()

	s := &submission{result: &Result{State: StateIdle, Trace: []State{StateIdle}}}
	err = o.run(ctx, s, req, snapshot)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.result.Order != nil {
		span.SetAttributes(attribute.String("order.id", s.result.Order.ID))
	}
	return s.result, err
}

type submission struct {
	result *Result
}

func (s *submission) advance(to State) error {
	next, err := transition(s.result.State, to)
	if err != nil {
		return err
	}
	s.result.State = next
	s.result.Trace = append(s.result.Trace, next)
	return nil
}

// fail moves the submission to Failed and returns cause unchanged.
func (s *submission) fail(cause error) error {
	if err := s.advance(StateFailed); err != nil {
		return fmt.Errorf("%w (while failing with: %v)", err, cause)
	}
	return cause
}

func (o *Orchestrator) run(ctx context.Context, s *submission, req Request, snapshot cart.Snapshot) error {
	if err := s.advance(StateValidating); err != nil {
		return err
	}

	principal, ok := o.principals.CurrentPrincipal(ctx)
	if !ok {
		return s.fail(ErrAuthenticationRequired)
	}

	shipping, err := validateShipping(req.Shipping)
	if err != nil {
		return s.fail(err)
	}
	if err := validatePayment(req.Payment); err != nil {
		return s.fail(err)
	}

	if err := s.advance(StateCreatingOrder); err != nil {
		return err
	}

	order := &domain.Order{
		UserID:       principal.UserID,
		Items:        snapshot.Items,
		ShippingInfo: shipping,
		TotalAmount:  snapshot.Total,
		Status:       domain.OrderStatusPending,
	}
	if err := o.orders.Create(ctx, order); err != nil {
		o.logger.Error("failed to create order", "error", err, "user_id", principal.UserID)
		return s.fail(newPersistenceError(StepOrder, err))
	}
	s.result.Order = order

	if err := s.advance(StateCreatingPayment); err != nil {
		return err
	}

	selection := req.Payment.Selection()
	payment, err := o.payments.Create(ctx, payments.CreatePaymentInput{
		OrderID:         order.ID,
		PaymentMethodID: selection.MethodID,
		BankAccountID:   selection.BankAccountID,
		Amount:          order.TotalAmount,
	})
	if err != nil {
		o.logger.Error("failed to create payment, order left pending", "error", err, "order_id", order.ID)
		return s.fail(newPersistenceError(StepPayment, err))
	}
	s.result.Payment = payment

	if err := s.advance(StateSuccess); err != nil {
		return err
	}

	req.Cart.ClearCart()
	s.result.RedirectTo = ConfirmationPath(order.ID)

	o.logger.Info("checkout completed",
		"order_id", order.ID,
		"payment_id", payment.ID,
		"user_id", principal.UserID,
		"total_amount", order.TotalAmount,
	)

	o.publish(ctx, principal, order, payment, req.Payment)
	return nil
}

func (o *Orchestrator) publish(ctx context.Context, principal auth.Principal, order *domain.Order, payment *domain.Payment, choice PaymentChoice) {
	if o.publisher == nil {
		return
	}

	method, account := choice.Method()
	event := domain.CheckoutCompletedEvent{
		OrderID:       order.ID,
		PaymentID:     payment.ID,
		UserID:        principal.UserID,
		Email:         order.ShippingInfo.Email,
		FullName:      order.ShippingInfo.FullName,
		Amount:        payment.Amount,
		PaymentMethod: method,
		BankAccount:   account,
		ExpiresAt:     payment.ExpiresAt,
		Timestamp:     o.now().UTC(),
	}

	if err := o.publisher.Publish(ctx, order.ID, event); err != nil {
		o.logger.Error("failed to publish checkout event", "error", err, "order_id", order.ID)
	}
}

func validateShipping(in domain.ShippingInfo) (domain.ShippingInfo, error) {
	out := domain.ShippingInfo{
		FullName:    strings.TrimSpace(in.FullName),
		Email:       strings.TrimSpace(in.Email),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
	}

	switch {
	case out.FullName == "":
		return out, &ValidationError{Field: "fullName", Message: "is required"}
	case out.Email == "":
		return out, &ValidationError{Field: "email", Message: "is required"}
	case out.PhoneNumber == "":
		return out, &ValidationError{Field: "phoneNumber", Message: "is required"}
	}

	if _, err := mail.ParseAddress(out.Email); err != nil {
		return out, &ValidationError{Field: "email", Message: "is not a valid address"}
	}

	return out, nil
}

func validatePayment(choice PaymentChoice) error {
	if choice == nil {
		return &ValidationError{Field: "payment_method_id", Message: "is required"}
	}

	selection := choice.Selection()
	if selection.MethodID == "" {
		return &ValidationError{Field: "payment_method_id", Message: "is required"}
	}
	if !selection.Complete() {
		return &ValidationError{Field: "bank_account_id", Message: "is required for bank transfers"}
	}
	return nil
}
