package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dropfy/dropfy-api/internal/shopify"
)

type fakeVerifier struct {
	shop  *shopify.Shop
	err   error
	calls int
}

func (f *fakeVerifier) VerifyToken(_ context.Context) (*shopify.Shop, error) {
	f.calls++
	return f.shop, f.err
}

func newTestStoreService(t *testing.T, verifier *fakeVerifier) (*StoreService, func() string) {
	t.Helper()
	repos, _ := setupTestRepos(t)
	enc := testEncryptor(t)
	svc := NewStoreService(repos, enc, testLogger())
	svc.newVerifier = func(domain, token string) tokenVerifier { return verifier }

	decryptFirst := func() string {
		stores, err := repos.Stores.GetByUserID(context.Background(), "user-1")
		if err != nil || len(stores) == 0 {
			t.Fatalf("no store saved: %v", err)
		}
		plain, err := enc.Decrypt(stores[0].AccessToken)
		if err != nil {
			t.Fatalf("decrypt: %v", err)
		}
		return plain
	}
	return svc, decryptFirst
}

func TestStoreConnectVerifiesAndEncrypts(t *testing.T) {
	verifier := &fakeVerifier{shop: &shopify.Shop{ID: 1, Name: "My Shop"}}
	svc, decryptFirst := newTestStoreService(t, verifier)

	store, err := svc.Connect(context.Background(), "user-1", "my-shop.myshopify.com", "shpat_plain")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if verifier.calls != 1 {
		t.Errorf("verifier calls = %d, want 1", verifier.calls)
	}
	if store.AccessToken == "shpat_plain" {
		t.Error("access token stored in plaintext")
	}
	if got := decryptFirst(); got != "shpat_plain" {
		t.Errorf("decrypted token = %q", got)
	}
}

func TestStoreConnectRejectsBadToken(t *testing.T) {
	verifier := &fakeVerifier{err: shopify.ErrInvalidToken}
	svc, _ := newTestStoreService(t, verifier)

	if _, err := svc.Connect(context.Background(), "user-1", "shop.myshopify.com", "bad"); !errors.Is(err, shopify.ErrInvalidToken) {
		t.Errorf("Connect() error = %v, want ErrInvalidToken", err)
	}
}

func TestStoreConnectQuota(t *testing.T) {
	verifier := &fakeVerifier{shop: &shopify.Shop{ID: 1}}
	svc, _ := newTestStoreService(t, verifier)

	// Starter plan allows one store.
	if _, err := svc.Connect(context.Background(), "user-1", "first.myshopify.com", "tok"); err != nil {
		t.Fatalf("first Connect() error = %v", err)
	}
	if _, err := svc.Connect(context.Background(), "user-1", "second.myshopify.com", "tok"); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("second Connect() error = %v, want ErrQuotaExceeded", err)
	}
}

func TestStoreDisconnectOwnership(t *testing.T) {
	verifier := &fakeVerifier{shop: &shopify.Shop{ID: 1}}
	svc, _ := newTestStoreService(t, verifier)

	store, err := svc.Connect(context.Background(), "user-1", "shop.myshopify.com", "tok")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := svc.Disconnect(context.Background(), "user-2", store.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("Disconnect() error = %v, want ErrNotOwner", err)
	}
	if err := svc.Disconnect(context.Background(), "user-1", store.ID); err != nil {
		t.Errorf("Disconnect() error = %v for owner", err)
	}
}
