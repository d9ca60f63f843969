package chain

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"roulette-live-client/internal/metrics"
	"roulette-live-client/internal/models"
	"roulette-live-client/internal/store"
)

// BackendAPI is the slice of the casino REST surface the orchestrator needs.
type BackendAPI interface {
	Me(ctx context.Context) (*models.UserProfile, error)
	ClaimRequest(ctx context.Context, amount int64) (*models.ClaimVoucher, error)
	CheckAllowance(ctx context.Context, spender, user string) (string, error)
}

// Orchestrator runs deposit and claim flows against the chain and the
// backend. At most one operation per kind is in flight; a finished operation
// stays visible until acknowledged. Every transition is persisted before the
// next step runs, so an interrupted flow can resume without re-submitting an
// external action. Failures are terminal for the operation: the failing step
// is recorded for a manual retry, never retried automatically.
type Orchestrator struct {
	backend      Backend
	api          BackendAPI
	store        store.Store
	view         *models.BalanceView
	casinoAddr   string
	decimals     int
	refreshDelay time.Duration

	mu  sync.Mutex
	ops map[models.TransferKind]*models.TransferOperation

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewOrchestrator(backend Backend, api BackendAPI, st store.Store, view *models.BalanceView, casinoAddr string, decimals int, refreshDelay time.Duration) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		backend:      backend,
		api:          api,
		store:        st,
		view:         view,
		casinoAddr:   casinoAddr,
		decimals:     decimals,
		refreshDelay: refreshDelay,
		ops:          make(map[models.TransferKind]*models.TransferOperation),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Close abandons any in-flight waits. Operation state stays persisted, so a
// later Resume picks up where the wait left off.
func (o *Orchestrator) Close() {
	o.cancel()
	o.wg.Wait()
}

// Operation returns a copy of the current operation of a kind, or nil.
func (o *Orchestrator) Operation(kind models.TransferKind) *models.TransferOperation {
	o.mu.Lock()
	defer o.mu.Unlock()
	op, ok := o.ops[kind]
	if !ok {
		return nil
	}
	cp := *op
	return &cp
}

// Acknowledge clears a Completed or Failed operation, making its kind
// available again.
func (o *Orchestrator) Acknowledge(kind models.TransferKind) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	op, ok := o.ops[kind]
	if !ok {
		return nil
	}
	if op.Status.InFlight() {
		return models.ErrOperationInProgress
	}
	delete(o.ops, kind)
	op.Status = models.StatusIdle
	op.UpdatedAt = time.Now()
	return o.store.SaveOperation(op)
}

// Resume reloads persisted operations. An operation interrupted after its
// transaction was submitted continues waiting on the same hash; one
// interrupted before submission is marked Failed, because whether the
// external action happened is unknowable and blind re-submission is unsafe.
func (o *Orchestrator) Resume() {
	for _, kind := range []models.TransferKind{models.TransferDeposit, models.TransferClaim} {
		op, err := o.store.LoadOperation(kind)
		if err != nil {
			log.WithError(err).WithField("kind", kind).Warn("could not reload transfer state")
			continue
		}
		if op == nil || !op.Status.InFlight() {
			if op != nil && (op.Status == models.StatusCompleted || op.Status == models.StatusFailed) {
				o.mu.Lock()
				o.ops[kind] = op
				o.mu.Unlock()
			}
			continue
		}

		o.mu.Lock()
		o.ops[kind] = op
		o.mu.Unlock()

		if op.TxHash == "" {
			o.fail(op, op.Status, errors.New("interrupted before submission"))
			continue
		}

		log.WithFields(log.Fields{
			"kind":   kind,
			"status": op.Status,
			"tx":     op.TxHash,
		}).Info("resuming interrupted transfer")

		o.wg.Add(1)
		go func(op *models.TransferOperation) {
			defer o.wg.Done()
			o.resumeWait(op)
		}(op)
	}
}

// Deposit starts a deposit flow for a whole-unit amount and returns its
// durable record. The flow itself runs in the background; callers observe
// progress through Operation.
func (o *Orchestrator) Deposit(ctx context.Context, amount int64) (*models.TransferOperation, error) {
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	balance, err := o.backend.TokenBalance(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "query token balance")
	}
	if ToSmallestUnit(amount, o.decimals).Cmp(balance) > 0 {
		return nil, models.ErrInsufficientBalance
	}

	op, err := o.begin(models.TransferDeposit, amount, models.StatusCheckingAllowance)
	if err != nil {
		return nil, err
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.runDeposit(op)
	}()
	return o.Operation(models.TransferDeposit), nil
}

// Claim starts a claim flow for a whole-unit amount out of the
// server-confirmed in-game balance.
func (o *Orchestrator) Claim(ctx context.Context, amount int64) (*models.TransferOperation, error) {
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}
	if amount > o.view.Get() {
		return nil, models.ErrInsufficientBalance
	}

	op, err := o.begin(models.TransferClaim, amount, models.StatusRequestingVoucher)
	if err != nil {
		return nil, err
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.runClaim(op)
	}()
	return o.Operation(models.TransferClaim), nil
}

func (o *Orchestrator) begin(kind models.TransferKind, amount int64, first models.TransferStatus) (*models.TransferOperation, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if existing, ok := o.ops[kind]; ok && existing.Status.InFlight() {
		return nil, models.ErrOperationInProgress
	}

	now := time.Now()
	op := &models.TransferOperation{
		ID:        uuid.New().String(),
		Kind:      kind,
		Amount:    amount,
		Status:    first,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.store.SaveOperation(op); err != nil {
		return nil, errors.Wrap(err, "persist transfer state")
	}
	o.ops[kind] = op
	return op, nil
}

func (o *Orchestrator) runDeposit(op *models.TransferOperation) {
	amountWei := ToSmallestUnit(op.Amount, o.decimals)

	allowance, err := o.checkAllowance()
	if err != nil {
		o.fail(op, models.StatusCheckingAllowance, err)
		return
	}

	if allowance.Cmp(amountWei) < 0 {
		o.transition(op, models.StatusApproving)
		txHash, err := o.backend.Approve(o.ctx, amountWei)
		if err != nil {
			o.fail(op, models.StatusApproving, err)
			return
		}
		o.setTxHash(op, txHash)

		o.transition(op, models.StatusAwaitingApprovalConfirm)
		if err := o.backend.WaitMined(o.ctx, txHash); err != nil {
			o.fail(op, models.StatusAwaitingApprovalConfirm, err)
			return
		}

		// The approval is mined; confirm the chain agrees before moving
		// funds.
		o.transition(op, models.StatusCheckingAllowance)
		allowance, err = o.checkAllowance()
		if err != nil {
			o.fail(op, models.StatusCheckingAllowance, err)
			return
		}
		if allowance.Cmp(amountWei) < 0 {
			o.fail(op, models.StatusCheckingAllowance, errors.New("allowance still insufficient after approval"))
			return
		}
	}

	o.transition(op, models.StatusDepositing)
	txHash, err := o.backend.Deposit(o.ctx, amountWei)
	if err != nil {
		o.fail(op, models.StatusDepositing, err)
		return
	}
	o.setTxHash(op, txHash)

	o.transition(op, models.StatusAwaitingDepositConfirm)
	if err := o.backend.WaitMined(o.ctx, txHash); err != nil {
		o.fail(op, models.StatusAwaitingDepositConfirm, err)
		return
	}

	o.complete(op)
}

func (o *Orchestrator) runClaim(op *models.TransferOperation) {
	voucher, err := o.api.ClaimRequest(o.ctx, op.Amount)
	if err != nil {
		o.fail(op, models.StatusRequestingVoucher, err)
		return
	}

	used, err := o.store.NonceUsed(voucher.Nonce)
	if err != nil {
		o.fail(op, models.StatusRequestingVoucher, err)
		return
	}
	if used {
		o.fail(op, models.StatusRequestingVoucher, models.ErrVoucherReused)
		return
	}

	o.mu.Lock()
	op.Nonce = voucher.Nonce
	o.mu.Unlock()

	// The nonce is burned locally before submission: if the process dies
	// mid-submit, the next attempt requests a fresh voucher instead of
	// guessing whether this one was consumed.
	if err := o.store.MarkNonceUsed(voucher.Nonce); err != nil {
		o.fail(op, models.StatusSubmittingClaim, err)
		return
	}

	o.transition(op, models.StatusSubmittingClaim)
	txHash, err := o.backend.Claim(o.ctx, ToSmallestUnit(voucher.Amount, o.decimals), voucher.Nonce, voucher.Signature)
	if err != nil {
		o.fail(op, models.StatusSubmittingClaim, err)
		return
	}
	o.setTxHash(op, txHash)

	o.transition(op, models.StatusAwaitingClaimConfirm)
	if err := o.backend.WaitMined(o.ctx, txHash); err != nil {
		o.fail(op, models.StatusAwaitingClaimConfirm, err)
		return
	}

	o.complete(op)
}

// resumeWait continues an interrupted flow from its awaiting step.
func (o *Orchestrator) resumeWait(op *models.TransferOperation) {
	if err := o.backend.WaitMined(o.ctx, op.TxHash); err != nil {
		o.fail(op, op.Status, err)
		return
	}

	switch op.Status {
	case models.StatusAwaitingApprovalConfirm:
		// The approval was mined while we were away; the deposit itself
		// was never submitted, so the flow continues normally.
		o.transition(op, models.StatusCheckingAllowance)
		o.runDeposit(op)
	case models.StatusAwaitingDepositConfirm, models.StatusAwaitingClaimConfirm:
		o.complete(op)
	default:
		// A submitted transaction with an unexpected step recorded; the
		// money moved or it didn't, and a human has to look.
		o.fail(op, op.Status, errors.New("unrecognized resume point"))
	}
}

func (o *Orchestrator) checkAllowance() (*big.Int, error) {
	raw, err := o.api.CheckAllowance(o.ctx, o.casinoAddr, o.backend.WalletAddress())
	if err != nil {
		return nil, errors.Wrap(err, "check allowance")
	}
	allowance, ok := ParseSmallestUnit(raw)
	if !ok {
		return nil, errors.Errorf("malformed allowance %q", raw)
	}
	return allowance, nil
}

func (o *Orchestrator) transition(op *models.TransferOperation, status models.TransferStatus) {
	o.mu.Lock()
	op.Status = status
	op.UpdatedAt = time.Now()
	snapshot := *op
	o.mu.Unlock()

	log.WithFields(log.Fields{"kind": snapshot.Kind, "status": status}).Info("transfer step")
	if err := o.store.SaveOperation(&snapshot); err != nil {
		log.WithError(err).Warn("could not persist transfer state")
	}
}

func (o *Orchestrator) setTxHash(op *models.TransferOperation, txHash string) {
	o.mu.Lock()
	op.TxHash = txHash
	op.UpdatedAt = time.Now()
	snapshot := *op
	o.mu.Unlock()

	if err := o.store.SaveOperation(&snapshot); err != nil {
		log.WithError(err).Warn("could not persist transfer state")
	}
}

func (o *Orchestrator) complete(op *models.TransferOperation) {
	o.transition(op, models.StatusCompleted)
	log.WithFields(log.Fields{"kind": op.Kind, "amount": op.Amount, "tx": op.TxHash}).
		Info("transfer completed")
	o.scheduleRefresh()
}

func (o *Orchestrator) fail(op *models.TransferOperation, step models.TransferStatus, err error) {
	cerr := &models.ChainError{Step: step, Err: err}

	o.mu.Lock()
	op.Status = models.StatusFailed
	op.FailedStep = step
	op.Error = cerr.Error()
	op.UpdatedAt = time.Now()
	snapshot := *op
	o.mu.Unlock()

	metrics.RecordTransferFailure(string(snapshot.Kind), string(step))
	log.WithError(err).WithFields(log.Fields{"kind": snapshot.Kind, "step": step}).
		Warn("transfer failed")
	if serr := o.store.SaveOperation(&snapshot); serr != nil {
		log.WithError(serr).Warn("could not persist transfer state")
	}
}

// scheduleRefresh queues a delayed authoritative balance refresh. The delay
// covers the gap between local confirmation and backend finality; the view's
// timestamped write discards the result if a newer refresh landed first.
func (o *Orchestrator) scheduleRefresh() {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		select {
		case <-o.ctx.Done():
			return
		case <-time.After(o.refreshDelay):
		}

		taken := time.Now()
		profile, err := o.api.Me(o.ctx)
		if err != nil {
			log.WithError(err).Warn("post-transfer balance refresh failed")
			return
		}
		o.view.Set(profile.Balance, taken)
	}()
}
