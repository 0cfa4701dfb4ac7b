package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"civic-connect/backend/internal/devotp"
	"civic-connect/backend/internal/mailer"
	"civic-connect/backend/internal/otp/domain"
	userdomain "civic-connect/backend/internal/user/domain"
)

// memRepo mirrors the SQL semantics of the Postgres repository.
type memRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.Challenge
}

func newMemRepo() *memRepo { return &memRepo{rows: map[string]*domain.Challenge{}} }

func (r *memRepo) Create(_ context.Context, c *domain.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.rows[c.ID] = &cp
	return nil
}

func (r *memRepo) DeleteExpiredUnused(_ context.Context, email string, p domain.Purpose, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.rows {
		if c.Email == email && c.Purpose == p && !c.IsUsed && c.ExpiresAt.Before(now) {
			delete(r.rows, id)
		}
	}
	return nil
}

func (r *memRepo) HasCreatedSince(_ context.Context, email string, p domain.Purpose, since time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.rows {
		if c.Email == email && c.Purpose == p && c.CreatedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) FindLatestUnused(_ context.Context, email, code string, p domain.Purpose) (*domain.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matches []*domain.Challenge
	for _, c := range r.rows {
		if c.Email == email && c.Code == code && c.Purpose == p && !c.IsUsed {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID > matches[j].ID
	})
	cp := *matches[0]
	return &cp, nil
}

func (r *memRepo) Claim(_ context.Context, id string) (time.Time, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok || c.IsUsed {
		return time.Time{}, false, nil
	}
	c.IsUsed = true
	return c.ExpiresAt, true, nil
}

func (r *memRepo) DeleteUsedExcept(_ context.Context, email string, p domain.Purpose, keepID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.rows {
		if c.Email == email && c.Purpose == p && c.IsUsed && id != keepID {
			delete(r.rows, id)
		}
	}
	return nil
}

func (r *memRepo) Cleanup(_ context.Context, now, usedBefore time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, c := range r.rows {
		if c.ExpiresAt.Before(now) || (c.IsUsed && c.CreatedAt.Before(usedBefore)) {
			delete(r.rows, id)
			n++
		}
	}
	return n, nil
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

func (r *memRepo) get(id string) *domain.Challenge {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.rows[id]; ok {
		cp := *c
		return &cp
	}
	return nil
}

type memUsers map[string]*userdomain.User

func (m memUsers) GetByEmail(_ context.Context, email string) (*userdomain.User, error) {
	return m[email], nil
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (n *captureNotifier) Send(_ context.Context, m mailer.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, m)
	return n.err
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	repo  *memRepo
	mail  *captureNotifier
	dev   *devotp.MemoryStore
	clock *clock
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:  newMemRepo(),
		mail:  &captureNotifier{},
		dev:   devotp.NewMemoryStore(),
		clock: &clock{t: time.Now().UTC()},
	}
	users := memUsers{
		"alice@x.org": {ID: "u1", Email: "alice@x.org", Role: userdomain.RoleStaff, IsActive: true},
		"carol@x.org": {ID: "u3", Email: "carol@x.org", Role: userdomain.RoleStaff, IsActive: false},
	}
	var seq atomic.Int64
	f.svc = NewService(f.repo, users, f.mail, nil,
		WithClock(f.clock.Now),
		WithDevStore(f.dev),
		WithIDGenerator(func() string { return fmt.Sprintf("c%03d", seq.Add(1)) }),
	)
	return f
}

func (f *fixture) issuedCode(t *testing.T, email, purpose string) string {
	t.Helper()
	code, _, ok := f.dev.Get(context.Background(), email, purpose)
	if !ok {
		t.Fatalf("no code recorded for %s/%s", email, purpose)
	}
	return code
}

func TestIssue_Success(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Issue(context.Background(), " Alice@X.org ", "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if res.ExpiresIn != 600 {
		t.Errorf("ExpiresIn = %d, want 600", res.ExpiresIn)
	}
	if res.Purpose != domain.PurposeLogin || res.Email != "alice@x.org" {
		t.Errorf("Issued = %+v", res)
	}
	if f.repo.count() != 1 {
		t.Fatalf("challenges = %d, want 1", f.repo.count())
	}
	if len(f.mail.sent) != 1 {
		t.Fatalf("emails sent = %d, want 1", len(f.mail.sent))
	}
	msg := f.mail.sent[0]
	if msg.To != "alice@x.org" || msg.Subject != "Login Verification - OTP Code" {
		t.Errorf("message = %+v", msg)
	}
	c := f.repo.get("c001")
	if c == nil || !c.ExpiresAt.Equal(c.CreatedAt.Add(10*time.Minute)) {
		t.Fatalf("challenge = %+v", c)
	}
	if f.issuedCode(t, "alice@x.org", "login") != c.Code {
		t.Error("dev store code differs from persisted code")
	}
}

func TestIssue_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		purpose string
		want    error
	}{
		{"unknown purpose", "alice@x.org", "signup", ErrInvalidPurpose},
		{"unknown login recipient", "nobody@x.org", "login", ErrUnknownRecipient},
		{"inactive login recipient", "carol@x.org", "login", ErrInactiveRecipient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Issue(context.Background(), tt.email, tt.purpose)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Issue err = %v, want %v", err, tt.want)
			}
			if f.repo.count() != 0 || len(f.mail.sent) != 0 {
				t.Fatal("rejected issuance must not persist or send")
			}
		})
	}
}

func TestIssue_RegistrationSkipsUserLookup(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Issue(context.Background(), "newcomer@x.org", "registration"); err != nil {
		t.Fatalf("Issue registration: %v", err)
	}
	if f.mail.sent[0].Subject != "Registration Verification - OTP Code" {
		t.Errorf("subject = %q", f.mail.sent[0].Subject)
	}
}

func TestIssue_RateLimitedWithinWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Issue(ctx, "alice@x.org", "login"); err != nil {
		t.Fatalf("first Issue: %v", err)
	}
	f.clock.Advance(30 * time.Second)
	if _, err := f.svc.Issue(ctx, "alice@x.org", "login"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("second Issue err = %v, want ErrRateLimited", err)
	}
	if f.repo.count() != 1 {
		t.Fatalf("challenges = %d, want 1 (rate-limited issuance creates nothing)", f.repo.count())
	}

	// A different purpose has its own window.
	if _, err := f.svc.Issue(ctx, "alice@x.org", "password_reset"); err != nil {
		t.Fatalf("Issue other purpose: %v", err)
	}

	f.clock.Advance(31 * time.Second)
	if _, err := f.svc.Issue(ctx, "alice@x.org", "login"); err != nil {
		t.Fatalf("Issue after window: %v", err)
	}
}

func TestIssue_DeliveryFailureKeepsChallenge(t *testing.T) {
	f := newFixture(t)
	f.mail.err = errors.New("smtp down")
	_, err := f.svc.Issue(context.Background(), "alice@x.org", "login")
	if !errors.Is(err, ErrDelivery) {
		t.Fatalf("Issue err = %v, want ErrDelivery", err)
	}
	if f.repo.count() != 1 {
		t.Fatalf("challenge should remain after delivery failure, have %d", f.repo.count())
	}
}

func TestIssue_PurgesExpiredUnused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Issue(ctx, "alice@x.org", "login"); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(11 * time.Minute)
	if _, err := f.svc.Issue(ctx, "alice@x.org", "login"); err != nil {
		t.Fatal(err)
	}
	if f.repo.get("c001") != nil {
		t.Error("expired unused challenge should be deleted on next issuance")
	}
	if f.repo.count() != 1 {
		t.Errorf("challenges = %d, want 1", f.repo.count())
	}
}

func TestVerify_SingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Issue(ctx, "alice@x.org", "login"); err != nil {
		t.Fatal(err)
	}
	code := f.issuedCode(t, "alice@x.org", "login")

	if err := f.svc.Verify(ctx, "ALICE@x.org", code, ""); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if c := f.repo.get("c001"); c == nil || !c.IsUsed {
		t.Fatalf("challenge after verify = %+v, want used", c)
	}
	if err := f.svc.Verify(ctx, "alice@x.org", code, "login"); !errors.Is(err, ErrInvalidOrExpired) {
		t.Fatalf("second Verify err = %v, want ErrInvalidOrExpired", err)
	}
}

func TestVerify_WrongCodeOrPurpose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Issue(ctx, "alice@x.org", "login"); err != nil {
		t.Fatal(err)
	}
	code := f.issuedCode(t, "alice@x.org", "login")
	wrong := "100000"
	if code == wrong {
		wrong = "100001"
	}
	if err := f.svc.Verify(ctx, "alice@x.org", wrong, "login"); !errors.Is(err, ErrInvalidOrExpired) {
		t.Errorf("wrong code err = %v", err)
	}
	if err := f.svc.Verify(ctx, "alice@x.org", code, "password_reset"); !errors.Is(err, ErrInvalidOrExpired) {
		t.Errorf("wrong purpose err = %v", err)
	}
	if err := f.svc.Verify(ctx, "alice@x.org", "12ab56", "login"); !errors.Is(err, ErrInvalidOrExpired) {
		t.Errorf("malformed code err = %v", err)
	}
	if err := f.svc.Verify(ctx, "alice@x.org", code, "bogus"); !errors.Is(err, ErrInvalidPurpose) {
		t.Errorf("bogus purpose err = %v", err)
	}
	if err := f.svc.Verify(ctx, "alice@x.org", code, "login"); err != nil {
		t.Errorf("correct code still verifies after failures: %v", err)
	}
}

func TestVerify_ExpiredIsConsumed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Issue(ctx, "alice@x.org", "login"); err != nil {
		t.Fatal(err)
	}
	code := f.issuedCode(t, "alice@x.org", "login")
	f.clock.Advance(10*time.Minute + time.Second)

	if err := f.svc.Verify(ctx, "alice@x.org", code, "login"); !errors.Is(err, ErrExpired) {
		t.Fatalf("Verify err = %v, want ErrExpired", err)
	}
	if c := f.repo.get("c001"); c == nil || !c.IsUsed {
		t.Fatalf("expired challenge should be marked used, got %+v", c)
	}
	if err := f.svc.Verify(ctx, "alice@x.org", code, "login"); !errors.Is(err, ErrInvalidOrExpired) {
		t.Fatalf("re-verify err = %v, want ErrInvalidOrExpired", err)
	}
}

func TestVerify_ConcurrentOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Issue(ctx, "alice@x.org", "login"); err != nil {
		t.Fatal(err)
	}
	code := f.issuedCode(t, "alice@x.org", "login")

	const n = 16
	var (
		wg      sync.WaitGroup
		success atomic.Int32
		invalid atomic.Int32
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch err := f.svc.Verify(ctx, "alice@x.org", code, "login"); {
			case err == nil:
				success.Add(1)
			case errors.Is(err, ErrInvalidOrExpired):
				invalid.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if success.Load() != 1 {
		t.Fatalf("successful verifications = %d, want 1", success.Load())
	}
	if invalid.Load() != n-1 {
		t.Fatalf("invalid verifications = %d, want %d", invalid.Load(), n-1)
	}
}

func TestVerify_RemovesOtherUsedChallenges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Issue(ctx, "alice@x.org", "login"); err != nil {
		t.Fatal(err)
	}
	first := f.issuedCode(t, "alice@x.org", "login")
	if err := f.svc.Verify(ctx, "alice@x.org", first, "login"); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(2 * time.Minute)
	if _, err := f.svc.Issue(ctx, "alice@x.org", "login"); err != nil {
		t.Fatal(err)
	}
	second := f.issuedCode(t, "alice@x.org", "login")
	if err := f.svc.Verify(ctx, "alice@x.org", second, "login"); err != nil {
		t.Fatal(err)
	}
	if f.repo.get("c001") != nil {
		t.Error("previously used challenge should be removed after a new verification")
	}
	if f.repo.get("c002") == nil {
		t.Error("the challenge just verified is kept until cleanup")
	}
}

func TestCleanup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := f.clock.Now()
	_ = f.repo.Create(ctx, &domain.Challenge{ID: "expired", Email: "a@x.org", Purpose: "login", Code: "111111",
		CreatedAt: now.Add(-20 * time.Minute), ExpiresAt: now.Add(-10 * time.Minute)})
	_ = f.repo.Create(ctx, &domain.Challenge{ID: "old-used", Email: "b@x.org", Purpose: "login", Code: "222222",
		CreatedAt: now.Add(-25 * time.Hour), ExpiresAt: now.Add(time.Hour), IsUsed: true})
	_ = f.repo.Create(ctx, &domain.Challenge{ID: "fresh", Email: "c@x.org", Purpose: "login", Code: "333333",
		CreatedAt: now, ExpiresAt: now.Add(10 * time.Minute)})

	n, err := f.svc.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if n != 2 {
		t.Fatalf("Cleanup removed %d, want 2", n)
	}
	if f.repo.get("fresh") == nil {
		t.Fatal("fresh challenge must survive cleanup")
	}
}

func TestAliceLoginScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.svc.Issue(ctx, "alice@x.org", "login")
	if err != nil {
		t.Fatal(err)
	}
	if res.ExpiresIn != 600 {
		t.Fatalf("ExpiresIn = %d", res.ExpiresIn)
	}
	f.clock.Advance(20 * time.Second)
	if _, err := f.svc.Issue(ctx, "alice@x.org", "login"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("resend within a minute err = %v", err)
	}
	code := f.issuedCode(t, "alice@x.org", "login")
	f.clock.Advance(2 * time.Minute)
	if err := f.svc.Verify(ctx, "alice@x.org", code, "login"); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if err := f.svc.Verify(ctx, "alice@x.org", code, "login"); !errors.Is(err, ErrInvalidOrExpired) {
		t.Fatalf("replay err = %v", err)
	}
}
