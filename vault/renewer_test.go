package vault

import (
	"context"
	"testing"
	"time"

	"github.com/cedar-team/oolong/internal/testutil"
	"github.com/cedar-team/oolong/vaultutil"
	"github.com/evergreen-ci/utility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRenewer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	makeClient := func(t *testing.T, srv *testutil.FakeVaultServer) *BasicVaultClient {
		hc := utility.GetHTTPClient()
		t.Cleanup(func() {
			utility.PutHTTPClient(hc)
		})

		c, err := NewBasicVaultClient(*vaultutil.NewClientOptions().
			SetAddress(srv.URL()).
			SetToken(srv.Token).
			SetHTTPClient(hc))
		require.NoError(t, err)

		return c
	}

	waitForRenewals := func(ctx context.Context, t *testing.T, srv *testutil.FakeVaultServer, min int) {
		timer := time.NewTimer(5 * time.Second)
		defer timer.Stop()
		for srv.RenewCount() < min {
			select {
			case <-ctx.Done():
				require.FailNow(t, "context done before renewal count reached", "wanted at least %d renewals, saw %d", min, srv.RenewCount())
			case <-timer.C:
				require.FailNow(t, "timed out waiting for renewals", "wanted at least %d renewals, saw %d", min, srv.RenewCount())
			case <-time.After(10 * time.Millisecond):
			}
		}
	}

	for tName, tCase := range map[string]func(ctx context.Context, t *testing.T, srv *testutil.FakeVaultServer, r *TokenRenewer){
		"RenewsOnEachTick": func(ctx context.Context, t *testing.T, srv *testutil.FakeVaultServer, r *TokenRenewer) {
			r.Start(ctx)
			defer r.Stop()

			waitForRenewals(ctx, t, srv, 2)
		},
		"SurvivesRenewalFailures": func(ctx context.Context, t *testing.T, srv *testutil.FakeVaultServer, r *TokenRenewer) {
			srv.FailPath("auth/token/renew-self", 403)

			r.Start(ctx)
			defer r.Stop()

			// Let a few failing ticks elapse, then verify the loop is still
			// alive by letting renewals succeed again.
			time.Sleep(100 * time.Millisecond)
			assert.Zero(t, srv.RenewCount())

			srv.ClearFailures()
			waitForRenewals(ctx, t, srv, 1)
		},
		"StartIsIdempotentWhileRunning": func(ctx context.Context, t *testing.T, srv *testutil.FakeVaultServer, r *TokenRenewer) {
			r.Start(ctx)
			r.Start(ctx)
			defer r.Stop()

			waitForRenewals(ctx, t, srv, 1)
		},
		"StopIsIdempotent": func(ctx context.Context, t *testing.T, srv *testutil.FakeVaultServer, r *TokenRenewer) {
			r.Start(ctx)
			r.Stop()
			r.Stop()
		},
		"StopWithoutStartIsANoop": func(ctx context.Context, t *testing.T, srv *testutil.FakeVaultServer, r *TokenRenewer) {
			r.Stop()
		},
		"StopHaltsRenewals": func(ctx context.Context, t *testing.T, srv *testutil.FakeVaultServer, r *TokenRenewer) {
			r.Start(ctx)
			waitForRenewals(ctx, t, srv, 1)
			r.Stop()

			count := srv.RenewCount()
			time.Sleep(100 * time.Millisecond)
			assert.Equal(t, count, srv.RenewCount())
		},
		"RestartsAfterStop": func(ctx context.Context, t *testing.T, srv *testutil.FakeVaultServer, r *TokenRenewer) {
			r.Start(ctx)
			waitForRenewals(ctx, t, srv, 1)
			r.Stop()

			count := srv.RenewCount()

			r.Start(ctx)
			defer r.Stop()
			waitForRenewals(ctx, t, srv, count+1)
		},
	} {
		t.Run(tName, func(t *testing.T) {
			tctx, tcancel := context.WithTimeout(ctx, 10*time.Second)
			defer tcancel()

			srv := testutil.NewFakeVaultServer()
			defer srv.Close()

			c := makeClient(t, srv)
			defer func() {
				assert.NoError(t, c.Close(tctx))
			}()

			tCase(tctx, t, srv, NewTokenRenewer(c, 25*time.Millisecond))
		})
	}

	t.Run("NonpositiveIntervalDefaults", func(t *testing.T) {
		r := NewTokenRenewer(nil, 0)
		assert.Equal(t, DefaultRenewalInterval, r.interval)

		r = NewTokenRenewer(nil, -time.Minute)
		assert.Equal(t, DefaultRenewalInterval, r.interval)
	})
}
