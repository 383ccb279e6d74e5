package vault

import (
	"context"
	"time"

	"github.com/cedar-team/oolong"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
)

// DefaultRenewalInterval is how often the client renews its own credential,
// chosen to stay comfortably inside a typical credential lease.
const DefaultRenewalInterval = 50 * time.Minute

// TokenRenewer periodically renews the client's bearer credential in the
// background so it does not expire while the owning process runs. A failed
// renewal is never fatal - the credential may still be valid until its
// original expiry - so failures are logged and the loop continues.
type TokenRenewer struct {
	client   oolong.VaultClient
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewTokenRenewer creates a new renewer for the given client's credential. A
// nonpositive interval defaults to DefaultRenewalInterval.
func NewTokenRenewer(c oolong.VaultClient, interval time.Duration) *TokenRenewer {
	if interval <= 0 {
		interval = DefaultRenewalInterval
	}
	return &TokenRenewer{
		client:   c,
		interval: interval,
	}
}

// Start begins the renewal loop in the background. It is a no-op if the loop
// is already running.
func (r *TokenRenewer) Start(ctx context.Context) {
	if r.cancel != nil {
		return
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	go r.run(ctx)
}

func (r *TokenRenewer) run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.renew(ctx)
		}
	}
}

func (r *TokenRenewer) renew(ctx context.Context) {
	if _, err := r.client.RenewToken(ctx); err != nil {
		grip.Warning(message.WrapError(err, message.Fields{
			"message": "could not renew credential, will retry on the next tick",
		}))
		return
	}

	grip.Info(message.Fields{
		"message": "renewed credential",
	})
}

// Stop stops the renewal loop during orderly shutdown and waits for it to
// exit. It is idempotent.
func (r *TokenRenewer) Stop() {
	if r.cancel == nil {
		return
	}

	r.cancel()
	<-r.done
	r.cancel = nil
}
