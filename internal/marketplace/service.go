// Package marketplace implements the watcher lifecycle manager and the
// surrounding marketplace operations: operator registration, watcher-type
// templates, and idempotent, payment-splitting watcher creation.
package marketplace

import (
	"context"
	"time"

	"github.com/wardenlabs/watchmarket/internal/accounting"
	"github.com/wardenlabs/watchmarket/internal/evaluator"
	"github.com/wardenlabs/watchmarket/internal/fulfillment"
	"github.com/wardenlabs/watchmarket/internal/pkg/validator"

	"github.com/google/uuid"
)

// AnonymousCustomerID is the sentinel customer identity used when a creation
// request carries no out-of-band customer identifier.
const AnonymousCustomerID = "anonymous"

// EvaluatorResolver is the narrow view of the evaluator registry the
// lifecycle manager needs: resolving an executor id to validate configs at
// creation time.
type EvaluatorResolver interface {
	Resolve(id string) (evaluator.Evaluator, bool)
}

// Service is the marketplace entrypoint consumed by the HTTP and CLI
// handlers.
type Service interface {
	// RegisterOperator creates a new operator account.
	RegisterOperator(ctx context.Context, in RegisterOperatorInput) (Operator, error)

	// GetOperator returns a single operator by id.
	GetOperator(ctx context.Context, id string) (Operator, error)

	// ListOperators returns every registered operator.
	ListOperators(ctx context.Context) ([]Operator, error)

	// CreateWatcherType publishes a new watcher-type template owned by an
	// existing operator.
	CreateWatcherType(ctx context.Context, in CreateWatcherTypeInput) (WatcherType, error)

	// GetWatcherType returns a single watcher type by id.
	GetWatcherType(ctx context.Context, id string) (WatcherType, error)

	// ListWatcherTypes returns watcher types matching the filter.
	ListWatcherTypes(ctx context.Context, filter WatcherTypeFilter) ([]WatcherType, error)

	// DeprecateWatcherType marks a watcher type as no longer accepting new
	// instances. Existing watchers keep running.
	DeprecateWatcherType(ctx context.Context, id string) error

	// CreateWatcher runs the idempotent watcher creation flow: fingerprint
	// dedup, type/operator resolution, config validation, payment split,
	// and receipt issuance.
	CreateWatcher(ctx context.Context, in CreateWatcherInput) (CreateWatcherOutput, error)

	// GetWatcher returns a single watcher by id.
	GetWatcher(ctx context.Context, id string) (Watcher, error)

	// ListWatchers returns watchers matching the filter.
	ListWatchers(ctx context.Context, filter WatcherFilter) ([]Watcher, error)

	// SetWatcherStatus transitions a watcher between active, paused, and
	// expired. Expired is terminal.
	SetWatcherStatus(ctx context.Context, id string, status WatcherStatus) error
}

// CreateWatcherOutput bundles everything a successful creation produced.
// Replayed is true when the request matched an existing fulfillment and no
// side effects were re-executed.
type CreateWatcherOutput struct {
	Watcher  Watcher             `json:"watcher"`
	Payment  Payment             `json:"payment"`
	Receipt  fulfillment.Receipt `json:"receipt"`
	Replayed bool                `json:"replayed"`
}

type service struct {
	operators  OperatorStorage
	types      WatcherTypeStorage
	watchers   WatcherStorage
	payments   PaymentStorage
	ledger     fulfillment.Ledger
	evaluators EvaluatorResolver
	accounting accounting.Service

	paymentNetwork string
	paymentRail    string
	now            func() time.Time
}

var _ Service = (*service)(nil)

// config holds optional service settings.
type config struct {
	paymentNetwork string
	paymentRail    string
	now            func() time.Time
}

// Option configures the marketplace service.
type Option func(*config)

// WithPaymentNetwork sets the settlement network recorded on payments and
// receipts. Default: "base".
func WithPaymentNetwork(network string) Option {
	return func(c *config) {
		c.paymentNetwork = network
	}
}

// WithPaymentRail sets the payment rail recorded on receipts.
// Default: "x402".
func WithPaymentRail(rail string) Option {
	return func(c *config) {
		c.paymentRail = rail
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// New wires the marketplace service from its persistence ports, the
// fulfillment ledger, the evaluator resolver, and the accounting service.
func New(
	operators OperatorStorage,
	types WatcherTypeStorage,
	watchers WatcherStorage,
	payments PaymentStorage,
	ledger fulfillment.Ledger,
	evaluators EvaluatorResolver,
	acc accounting.Service,
	opts ...Option,
) *service {
	cfg := config{
		paymentNetwork: "base",
		paymentRail:    "x402",
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		operators:      operators,
		types:          types,
		watchers:       watchers,
		payments:       payments,
		ledger:         ledger,
		evaluators:     evaluators,
		accounting:     acc,
		paymentNetwork: cfg.paymentNetwork,
		paymentRail:    cfg.paymentRail,
		now:            cfg.now,
	}
}

func (s *service) RegisterOperator(ctx context.Context, in RegisterOperatorInput) (Operator, error) {
	if err := validator.Validate(in); err != nil {
		return Operator{}, err
	}

	op := Operator{
		ID:            uuid.NewString(),
		Name:          in.Name,
		PayoutAddress: in.PayoutAddress,
		CreatedAt:     s.now().UTC(),
	}

	if err := s.operators.CreateOperator(ctx, op); err != nil {
		return Operator{}, err
	}

	return op, nil
}

func (s *service) CreateWatcherType(ctx context.Context, in CreateWatcherTypeInput) (WatcherType, error) {
	if err := validator.Validate(in); err != nil {
		return WatcherType{}, err
	}

	if _, err := s.operators.GetOperator(ctx, in.OperatorID); err != nil {
		return WatcherType{}, err
	}

	wt := WatcherType{
		ID:          uuid.NewString(),
		OperatorID:  in.OperatorID,
		ExecutorID:  in.ExecutorID,
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		Status:      WatcherTypeStatusActive,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.types.CreateWatcherType(ctx, wt); err != nil {
		return WatcherType{}, err
	}

	return wt, nil
}

func (s *service) GetOperator(ctx context.Context, id string) (Operator, error) {
	return s.operators.GetOperator(ctx, id)
}

func (s *service) ListOperators(ctx context.Context) ([]Operator, error) {
	return s.operators.ListOperators(ctx)
}

func (s *service) GetWatcherType(ctx context.Context, id string) (WatcherType, error) {
	return s.types.GetWatcherType(ctx, id)
}

func (s *service) DeprecateWatcherType(ctx context.Context, id string) error {
	if _, err := s.types.GetWatcherType(ctx, id); err != nil {
		return err
	}

	return s.types.UpdateWatcherTypeStatus(ctx, id, WatcherTypeStatusDeprecated)
}

func (s *service) ListWatcherTypes(ctx context.Context, filter WatcherTypeFilter) ([]WatcherType, error) {
	return s.types.ListWatcherTypes(ctx, filter)
}

func (s *service) GetWatcher(ctx context.Context, id string) (Watcher, error) {
	return s.watchers.GetWatcher(ctx, id)
}

func (s *service) ListWatchers(ctx context.Context, filter WatcherFilter) ([]Watcher, error) {
	return s.watchers.ListWatchers(ctx, filter)
}

func (s *service) SetWatcherStatus(ctx context.Context, id string, status WatcherStatus) error {
	w, err := s.watchers.GetWatcher(ctx, id)
	if err != nil {
		return err
	}

	// Expired watchers never come back; everything else may move freely
	// between active and paused, or expire.
	if w.Status == WatcherStatusExpired && status != WatcherStatusExpired {
		return ErrInvalidStatusTransition
	}

	return s.watchers.UpdateWatcherStatus(ctx, id, status)
}
