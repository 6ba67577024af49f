package marketplace

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/wardenlabs/watchmarket/internal/evaluator"
	"github.com/wardenlabs/watchmarket/internal/fulfillment"
	"github.com/wardenlabs/watchmarket/internal/pkg/logger"

	"github.com/google/uuid"
)

// ErrInvalidWebhook is returned when the webhook is not a well-formed
// HTTP(S) URL.
var ErrInvalidWebhook = errors.New("webhook must be a valid http(s) url")

// ErrInvalidConfig is returned when the watcher type's evaluator rejects the
// supplied config. The joined chain carries one error per violated field.
var ErrInvalidConfig = errors.New("watcher config validation failed")

// ErrIntegrityViolation is returned when stored records contradict each
// other, such as a watcher type referencing an operator that no longer
// resolves. It marks a server-side fault, never a client input error.
var ErrIntegrityViolation = errors.New("marketplace records are inconsistent")

// validateWebhook checks that the webhook is an absolute http or https URL
// with a host.
func validateWebhook(webhook string) error {
	u, err := url.Parse(webhook)
	if err != nil {
		return errors.Join(ErrInvalidWebhook, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidWebhook
	}

	return nil
}

// validateConfig runs the evaluator's optional validate capability against
// the watcher config. Evaluators without the capability accept any config.
func validateConfig(ev evaluator.Evaluator, config map[string]any) error {
	cv, ok := ev.(evaluator.ConfigValidator)
	if !ok {
		return nil
	}

	msgs := cv.ValidateConfig(config)
	if len(msgs) == 0 {
		return nil
	}

	errs := make([]error, 0, len(msgs)+1)
	errs = append(errs, ErrInvalidConfig)
	for _, msg := range msgs {
		errs = append(errs, errors.New(msg))
	}

	return errors.Join(errs...)
}

// CreateWatcher performs the full idempotent creation flow:
//
//  1. Validate the request (webhook shape, required fields).
//  2. Compute the fulfillment fingerprint and consult the ledger; a recorded
//     receipt short-circuits into an idempotent replay with zero side effects.
//  3. Resolve the watcher type and its operator, then run the evaluator's
//     optional config validation.
//  4. Record the receipt first, claiming the fingerprint. Losing that race
//     to a concurrent duplicate also resolves into a replay of the winner.
//  5. Persist the watcher and the 80/20-split payment, then advance operator
//     and watcher-type counters.
func (s *service) CreateWatcher(ctx context.Context, in CreateWatcherInput) (CreateWatcherOutput, error) {
	if in.CustomerID == "" {
		in.CustomerID = AnonymousCustomerID
	}

	if err := validateWebhook(in.Webhook); err != nil {
		return CreateWatcherOutput{}, err
	}

	if in.TypeID == "" {
		return CreateWatcherOutput{}, ErrWatcherTypeNotFound
	}

	fingerprint, err := fulfillment.Fingerprint(fulfillment.FingerprintParams{
		TypeID:     in.TypeID,
		Config:     in.Config,
		Webhook:    in.Webhook,
		CustomerID: in.CustomerID,
	})
	if err != nil {
		return CreateWatcherOutput{}, err
	}

	if receipt, found, err := s.ledger.Lookup(ctx, fingerprint); err != nil {
		return CreateWatcherOutput{}, err
	} else if found {
		return s.replayFulfillment(ctx, receipt)
	}

	wt, err := s.types.GetWatcherType(ctx, in.TypeID)
	if err != nil {
		return CreateWatcherOutput{}, err
	}

	if wt.Status != WatcherTypeStatusActive {
		return CreateWatcherOutput{}, ErrWatcherTypeDeprecated
	}

	if _, err := s.operators.GetOperator(ctx, wt.OperatorID); err != nil {
		if errors.Is(err, ErrOperatorNotFound) {
			// Integrity violation: the type references an operator that no
			// longer resolves. Logged apart from client input errors.
			logger.Error(ctx, "watcher type references missing operator",
				"watcherType.id", wt.ID,
				"watcherType.operatorId", wt.OperatorID,
			)
			return CreateWatcherOutput{}, fmt.Errorf("watcher type %s references missing operator %s: %w", wt.ID, wt.OperatorID, ErrIntegrityViolation)
		}
		return CreateWatcherOutput{}, err
	}

	if ev, ok := s.evaluators.Resolve(wt.ExecutorID); ok {
		if err := validateConfig(ev, in.Config); err != nil {
			return CreateWatcherOutput{}, err
		}
	}

	var (
		now       = s.now().UTC()
		watcherID = uuid.NewString()
		paymentID = uuid.NewString()
	)

	receipt := fulfillment.Receipt{
		FulfillmentHash: fingerprint,
		WatcherID:       watcherID,
		PaymentID:       paymentID,
		Amount:          wt.Price,
		Chain:           s.paymentNetwork,
		Rail:            s.paymentRail,
		CreatedAt:       now,
	}

	// Recording the receipt claims the fingerprint before any other record
	// is written, so a crash leaves at most a dangling receipt, never a
	// double charge.
	stored, created, err := s.ledger.Record(ctx, receipt)
	if err != nil {
		return CreateWatcherOutput{}, err
	}
	if !created {
		return s.replayFulfillment(ctx, stored)
	}

	operatorShare, platformShare := splitPayment(wt.Price)
	payment := Payment{
		ID:            paymentID,
		WatcherID:     watcherID,
		Amount:        wt.Price,
		OperatorShare: operatorShare,
		PlatformShare: platformShare,
		Network:       s.paymentNetwork,
		CreatedAt:     now,
	}

	watcher := Watcher{
		ID:         watcherID,
		TypeID:     wt.ID,
		OperatorID: wt.OperatorID,
		CustomerID: in.CustomerID,
		Config:     in.Config,
		Webhook:    in.Webhook,
		Status:     WatcherStatusActive,
		CreatedAt:  now,
	}

	if err := s.watchers.CreateWatcher(ctx, watcher); err != nil {
		return CreateWatcherOutput{}, err
	}

	if err := s.payments.CreatePayment(ctx, payment); err != nil {
		return CreateWatcherOutput{}, err
	}

	if err := s.accounting.RecordWatcherCreated(ctx, wt.OperatorID, wt.ID); err != nil {
		// Stats are best-effort aggregates; a failed increment must not fail
		// an otherwise completed creation.
		logger.Warn(ctx, "failed to record watcher creation stats",
			"watcher.id", watcherID,
			"watcherType.id", wt.ID,
			"error", err,
		)
	}

	return CreateWatcherOutput{
		Watcher: watcher,
		Payment: payment,
		Receipt: stored,
	}, nil
}

// replayFulfillment reconstructs the original creation outcome from a
// previously recorded receipt.
func (s *service) replayFulfillment(ctx context.Context, receipt fulfillment.Receipt) (CreateWatcherOutput, error) {
	watcher, err := s.watchers.GetWatcher(ctx, receipt.WatcherID)
	if err != nil {
		return CreateWatcherOutput{}, fmt.Errorf("loading watcher for replayed fulfillment %s: %w", receipt.FulfillmentHash, err)
	}

	payment, err := s.payments.GetPayment(ctx, receipt.PaymentID)
	if err != nil {
		return CreateWatcherOutput{}, fmt.Errorf("loading payment for replayed fulfillment %s: %w", receipt.FulfillmentHash, err)
	}

	return CreateWatcherOutput{
		Watcher:  watcher,
		Payment:  payment,
		Receipt:  receipt,
		Replayed: true,
	}, nil
}
