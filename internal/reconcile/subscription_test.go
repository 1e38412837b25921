package reconcile

import (
	"context"
	"fmt"
	"testing"

	"firewand/internal/payments"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClaims struct {
	users map[string]map[string]interface{}

	getCalls int
	setCalls int
	lastSet  map[string]interface{}
}

func newFakeClaims() *fakeClaims {
	return &fakeClaims{users: map[string]map[string]interface{}{}}
}

func (f *fakeClaims) GetUser(ctx context.Context, uid string) (*auth.UserRecord, error) {
	f.getCalls++
	claims, ok := f.users[uid]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", payments.ErrNotFound, uid)
	}
	return &auth.UserRecord{
		UserInfo:     &auth.UserInfo{UID: uid},
		CustomClaims: claims,
	}, nil
}

func (f *fakeClaims) SetCustomUserClaims(ctx context.Context, uid string, claims map[string]interface{}) error {
	f.setCalls++
	if _, ok := f.users[uid]; !ok {
		return fmt.Errorf("%w: user %s", payments.ErrNotFound, uid)
	}
	f.users[uid] = claims
	f.lastSet = claims
	return nil
}

func newClaimsReconciler(claims ClaimsClient) *Reconciler {
	return New(nil, claims, nil, Config{})
}

func TestSyncRoleClaimSetsWhenEntitled(t *testing.T) {
	claims := newFakeClaims()
	claims.users["alice"] = map[string]interface{}{"admin": true}
	r := newClaimsReconciler(claims)

	require.NoError(t, r.syncRoleClaim(context.Background(), "alice", "premium", true))
	assert.Equal(t, 1, claims.setCalls)
	assert.Equal(t, "premium", claims.lastSet["stripeRole"])
	assert.Equal(t, true, claims.lastSet["admin"], "unrelated claims must survive")
}

func TestSyncRoleClaimNoopWhenAlreadySet(t *testing.T) {
	claims := newFakeClaims()
	claims.users["alice"] = map[string]interface{}{"stripeRole": "premium"}
	r := newClaimsReconciler(claims)

	require.NoError(t, r.syncRoleClaim(context.Background(), "alice", "premium", true))
	assert.Zero(t, claims.setCalls, "identical claim must not be rewritten")
}

func TestSyncRoleClaimClearsOnLostEntitlement(t *testing.T) {
	claims := newFakeClaims()
	claims.users["alice"] = map[string]interface{}{"stripeRole": "premium", "admin": true}
	r := newClaimsReconciler(claims)

	require.NoError(t, r.syncRoleClaim(context.Background(), "alice", "premium", false))
	assert.Equal(t, 1, claims.setCalls)
	_, has := claims.lastSet["stripeRole"]
	assert.False(t, has)
	assert.Equal(t, true, claims.lastSet["admin"])
}

func TestSyncRoleClaimLeavesForeignRoleAlone(t *testing.T) {
	// A canceled "premium" subscription must not tear down a claim the
	// user holds through a different product.
	claims := newFakeClaims()
	claims.users["alice"] = map[string]interface{}{"stripeRole": "gold"}
	r := newClaimsReconciler(claims)

	require.NoError(t, r.syncRoleClaim(context.Background(), "alice", "premium", false))
	assert.Zero(t, claims.setCalls)
	assert.Equal(t, "gold", claims.users["alice"]["stripeRole"])
}

func TestSyncRoleClaimSkipsRolelessProduct(t *testing.T) {
	claims := newFakeClaims()
	r := newClaimsReconciler(claims)

	require.NoError(t, r.syncRoleClaim(context.Background(), "alice", "", true))
	assert.Zero(t, claims.getCalls, "no role label means no identity round-trip")
}

func TestSyncRoleClaimSwallowsDeletedUser(t *testing.T) {
	claims := newFakeClaims()
	r := newClaimsReconciler(claims)

	err := r.syncRoleClaim(context.Background(), "ghost", "premium", true)
	assert.NoError(t, err, "a deleted user must not fail the reconciliation")
}

func TestClaimKeyOverride(t *testing.T) {
	claims := newFakeClaims()
	claims.users["alice"] = map[string]interface{}{}
	r := New(nil, claims, nil, Config{ClaimKey: "membership"})

	require.NoError(t, r.syncRoleClaim(context.Background(), "alice", "premium", true))
	assert.Equal(t, "premium", claims.lastSet["membership"])
	_, has := claims.lastSet["stripeRole"]
	assert.False(t, has)
}
