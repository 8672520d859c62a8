package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRequireAPIKeyMissingHeader(t *testing.T) {
	store, _ := testAPIKeyStore(t)

	called := false
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	handler := RequireAPIKey(store)(inner)

	r := httptest.NewRequest("POST", "/comments/create/1", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if called {
		t.Error("inner handler should not run")
	}
}

func TestRequireAPIKeyInvalid(t *testing.T) {
	store, _ := testAPIKeyStore(t)

	handler := RequireAPIKey(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest("PATCH", "/comments/1", nil)
	r.Header.Set("Authorization", "Bearer vp_nope")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRequireAPIKeySetsPrincipal(t *testing.T) {
	store, users := testAPIKeyStore(t)
	u := addTestUser(t, users, "Sari", RoleAdmin)
	rawKey, _, err := store.Create("cli", u.ID)
	if err != nil {
		t.Fatalf("create key: %v", err)
	}

	var got *Principal
	handler := RequireAPIKey(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest("DELETE", "/comments/1", nil)
	r.Header.Set("Authorization", "Bearer "+rawKey)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got == nil || got.ID != u.ID || !got.IsAdmin() {
		t.Errorf("principal = %+v, want admin %d", got, u.ID)
	}
}

func TestRequireAPIKeyRateLimit(t *testing.T) {
	store, _ := testAPIKeyStore(t)

	handler := RequireAPIKey(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last int
	for i := 0; i < rateLimitMaxFail+1; i++ {
		r := httptest.NewRequest("POST", "/comments/create/1", nil)
		r.RemoteAddr = "10.0.0.9:5555"
		r.Header.Set("Authorization", "Bearer vp_wrong")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		last = w.Code
	}

	if last != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", last, http.StatusTooManyRequests)
	}
}

func TestRateLimiterWindowExpires(t *testing.T) {
	now := time.Now()
	rl := newRateLimiter()
	rl.now = func() time.Time { return now }

	for i := 0; i < rateLimitMaxFail; i++ {
		rl.recordFailure("1.2.3.4")
	}
	if !rl.limited("1.2.3.4") {
		t.Fatal("expected limited after max failures")
	}

	now = now.Add(rateLimitWindow + time.Second)
	if rl.limited("1.2.3.4") {
		t.Error("expected limit to expire after window")
	}
}

func TestPrincipalContextRoundTrip(t *testing.T) {
	r := httptest.NewRequest("GET", "/me", nil)
	if PrincipalFromContext(r.Context()) != nil {
		t.Fatal("expected nil principal on bare context")
	}

	p := &Principal{ID: 9, DisplayName: "Joko", Role: RoleUser}
	ctx := WithPrincipal(r.Context(), p)
	if got := PrincipalFromContext(ctx); got != p {
		t.Errorf("got %+v, want %+v", got, p)
	}
}

func TestStaticIdentity(t *testing.T) {
	var anon Identity = StaticIdentity{}
	if anon.CurrentPrincipal() != nil {
		t.Error("zero StaticIdentity should be anonymous")
	}

	p := &Principal{ID: 1}
	var id Identity = StaticIdentity{Principal: p}
	if id.CurrentPrincipal() != p {
		t.Error("expected configured principal")
	}
}
