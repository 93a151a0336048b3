package account

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"niveshx-api/internal/auth/credentials"
	"niveshx-api/internal/identity"
	"niveshx-api/internal/mailer"
	"niveshx-api/internal/otp"
	"niveshx-api/internal/store"
	"niveshx-api/internal/store/memstore"
	"niveshx-api/internal/validate"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeCodes struct {
	mu    sync.Mutex
	codes map[string]string
	next  string
}

func newFakeCodes() *fakeCodes {
	return &fakeCodes{codes: map[string]string{}, next: "123456"}
}

func (f *fakeCodes) Issue(_ context.Context, email string, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[email] = f.next
	return f.next, nil
}

func (f *fakeCodes) Verify(_ context.Context, email, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	want, ok := f.codes[email]
	if !ok {
		return otp.ErrCodeExpired
	}
	if want != code {
		return otp.ErrCodeMismatch
	}
	delete(f.codes, email)
	return nil
}

type fakeLimiter struct {
	mu       sync.Mutex
	limit    int
	attempts map[string]int
}

func newFakeLimiter(limit int) *fakeLimiter {
	return &fakeLimiter{limit: limit, attempts: map[string]int{}}
}

func (f *fakeLimiter) Allow(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[id]++
	return f.attempts[id] <= f.limit, nil
}

func (f *fakeLimiter) Reset(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.attempts, id)
	return nil
}

type recordingMailer struct {
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fixture struct {
	svc    *Service
	store  *memstore.Store
	codes  *fakeCodes
	mail   *recordingMailer
	tokens *identity.JWTIssuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := identity.NewJWTIssuer("test-secret", "niveshx", time.Hour)
	if err != nil {
		t.Fatalf("NewJWTIssuer() error = %v", err)
	}
	f := &fixture{
		store:  memstore.New(),
		codes:  newFakeCodes(),
		mail:   &recordingMailer{},
		tokens: tokens,
	}
	f.svc = NewService(Deps{
		Store:         f.store,
		Codes:         f.codes,
		VerifyLimiter: newFakeLimiter(5),
		ResendLimiter: newFakeLimiter(5),
		Mailer:        f.mail,
		Tokens:        tokens,
	}, Config{
		OTPTTL:        10 * time.Minute,
		ResetTTL:      time.Hour,
		PublicBaseURL: "http://localhost:3000/",
	})
	ids := 0
	f.svc.newID = func() string {
		ids++
		return "u" + string(rune('0'+ids))
	}
	return f
}

func (f *fixture) seedUser(t *testing.T, id string, doc store.Document, password string) {
	t.Helper()
	ctx := context.Background()
	if err := f.store.Set(ctx, store.Users, id, doc); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if password == "" {
		return
	}
	hash, err := credentials.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := f.store.Set(ctx, Credentials, id, store.Document{"passwordHash": hash}); err != nil {
		t.Fatalf("seed credentials: %v", err)
	}
}

func TestCheckEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_ = f.store.Set(ctx, store.PendingUsers, "a@x.com", store.Document{"email": "a@x.com"})
	_ = f.store.Set(ctx, store.Users, "u1", store.Document{"email": "b@x.com"})
	// pending wins even when a user record also exists
	_ = f.store.Set(ctx, store.PendingUsers, "d@x.com", store.Document{"email": "d@x.com"})
	_ = f.store.Set(ctx, store.Users, "u2", store.Document{"email": "d@x.com"})

	tests := []struct {
		email string
		want  bool
	}{
		{email: "a@x.com", want: true},
		{email: "b@x.com", want: true},
		{email: "c@x.com", want: false},
		{email: "d@x.com", want: true},
		{email: " B@X.com ", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			got, err := f.svc.CheckEmail(ctx, tt.email)
			if err != nil {
				t.Fatalf("CheckEmail() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("CheckEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestCheckEmailEmptyDoesNotTouchStore(t *testing.T) {
	f := newFixture(t)
	f.store.Fail = errors.New("store must not be called")

	for _, email := range []string{"", "   "} {
		_, err := f.svc.CheckEmail(context.Background(), email)
		if !errors.Is(err, ErrEmailRequired) {
			t.Fatalf("CheckEmail(%q) error = %v, want ErrEmailRequired", email, err)
		}
	}
}

func TestCheckEmailStoreFailure(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("connection refused")
	f.store.Fail = boom

	_, err := f.svc.CheckEmail(context.Background(), "a@x.com")
	if !errors.Is(err, boom) {
		t.Fatalf("CheckEmail() error = %v, want wrapped %v", err, boom)
	}
}

func TestGetUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "u1", store.Document{"email": "b@x.com", "fullName": "Bo", "isVerified": true}, "")

	doc, err := f.svc.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if len(doc) != 3 || doc.String("fullName") != "Bo" || !doc.Bool("isVerified") {
		t.Fatalf("GetUser() = %v, want record verbatim", doc)
	}

	for _, id := range []string{"missing", ""} {
		if _, err := f.svc.GetUser(ctx, id); !errors.Is(err, ErrUserNotFound) {
			t.Fatalf("GetUser(%q) error = %v, want ErrUserNotFound", id, err)
		}
	}
}

func TestRegisterAndVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.Register(ctx, RegisterInput{
		FullName:     "Asha",
		Email:        "A@x.com",
		Password:     "correct horse",
		UserType:     UserTypeCompany,
		CompanyName:  "Acme",
		CompanyEmail: "founders@acme.io",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	pending, err := f.store.Get(ctx, store.PendingUsers, "a@x.com")
	if err != nil {
		t.Fatalf("pending record missing: %v", err)
	}
	if pending.String("password") == "correct horse" {
		t.Fatal("password stored in plaintext")
	}
	if len(f.mail.sent) != 1 || !strings.Contains(f.mail.sent[0].HTML, "123456") {
		t.Fatalf("otp email not sent: %+v", f.mail.sent)
	}

	exists, _ := f.svc.CheckEmail(ctx, "a@x.com")
	if !exists {
		t.Fatal("CheckEmail() = false after Register")
	}

	if _, err := f.svc.VerifyOTP(ctx, "a@x.com", "000000"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("VerifyOTP(wrong) error = %v, want ErrInvalidOTP", err)
	}

	accountID, err := f.svc.VerifyOTP(ctx, "a@x.com", "123456")
	if err != nil {
		t.Fatalf("VerifyOTP() error = %v", err)
	}

	user, err := f.svc.GetUser(ctx, accountID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if user.String("email") != "a@x.com" || !user.Bool("isVerified") || user.String("companyName") != "Acme" {
		t.Fatalf("user = %v", user)
	}
	if _, ok := user["password"]; ok {
		t.Fatal("password hash copied onto the profile")
	}
	if _, err := f.store.Get(ctx, store.PendingUsers, "a@x.com"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("pending record not removed: %v", err)
	}

	sess, err := f.svc.Login(ctx, "a@x.com", "correct horse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	id, err := f.tokens.Verify(ctx, sess.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if id.AccountID != accountID || id.UserType != UserTypeCompany {
		t.Fatalf("token identity = %+v", id)
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "u1", store.Document{"email": "b@x.com"}, "")

	valid := RegisterInput{
		FullName: "Bo",
		Email:    "new@x.com",
		Password: "correct horse",
		UserType: UserTypeInvestor,
	}

	tests := []struct {
		name   string
		mutate func(*RegisterInput)
		check  func(error) bool
	}{
		{
			name:   "missing email",
			mutate: func(in *RegisterInput) { in.Email = "" },
			check: func(err error) bool {
				var m *validate.MissingFieldError
				return errors.As(err, &m) && m.Field == "email"
			},
		},
		{
			name:   "company without company email",
			mutate: func(in *RegisterInput) { in.UserType = UserTypeCompany; in.CompanyName = "Acme" },
			check: func(err error) bool {
				var m *validate.MissingFieldError
				return errors.As(err, &m) && m.Field == "companyEmail"
			},
		},
		{
			name:   "unknown user type",
			mutate: func(in *RegisterInput) { in.UserType = "admin" },
			check:  func(err error) bool { return errors.Is(err, ErrInvalidUserType) },
		},
		{
			name:   "existing account",
			mutate: func(in *RegisterInput) { in.Email = "B@x.com" },
			check:  func(err error) bool { return errors.Is(err, ErrAlreadyRegistered) },
		},
		{
			name:   "short password",
			mutate: func(in *RegisterInput) { in.Password = "short" },
			check:  func(err error) bool { return errors.Is(err, credentials.ErrPasswordTooShort) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			err := f.svc.Register(ctx, in)
			if !tt.check(err) {
				t.Fatalf("Register() error = %v", err)
			}
		})
	}
}

func TestRegisterMailFailure(t *testing.T) {
	f := newFixture(t)
	f.mail.err = errors.New("smtp down")

	err := f.svc.Register(context.Background(), RegisterInput{
		FullName: "Bo",
		Email:    "bo@x.com",
		Password: "correct horse",
		UserType: UserTypeInvestor,
	})
	if err == nil {
		t.Fatal("Register() succeeded with failing mailer")
	}
}

func TestVerifyOTPErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.VerifyOTP(ctx, "a@x.com", "123456"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("VerifyOTP() with no code error = %v, want ErrInvalidOTP", err)
	}

	_, _ = f.codes.Issue(ctx, "ghost@x.com", time.Minute)
	if _, err := f.svc.VerifyOTP(ctx, "ghost@x.com", "123456"); !errors.Is(err, ErrPendingNotFound) {
		t.Fatalf("VerifyOTP() without pending error = %v, want ErrPendingNotFound", err)
	}

	var missing *validate.MissingFieldError
	if _, err := f.svc.VerifyOTP(ctx, "a@x.com", ""); !errors.As(err, &missing) {
		t.Fatalf("VerifyOTP() without code error = %v, want MissingFieldError", err)
	}
}

func TestVerifyOTPRateLimited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = f.svc.VerifyOTP(ctx, "a@x.com", "000000")
	}
	if _, err := f.svc.VerifyOTP(ctx, "a@x.com", "123456"); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("VerifyOTP() error = %v, want ErrTooManyAttempts", err)
	}
}

func TestResendOTP(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.svc.ResendOTP(ctx, "nobody@x.com"); err != nil {
		t.Fatalf("ResendOTP(unknown) error = %v, want nil", err)
	}
	if len(f.mail.sent) != 0 {
		t.Fatal("mail sent for unknown email")
	}

	f.seedUser(t, "u1", store.Document{"email": "b@x.com", "isVerified": true}, "")
	if err := f.svc.ResendOTP(ctx, "b@x.com"); !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("ResendOTP(verified) error = %v, want ErrAlreadyVerified", err)
	}

	_ = f.store.Set(ctx, store.PendingUsers, "a@x.com", store.Document{"email": "a@x.com", "fullName": "Asha"})
	f.codes.next = "654321"
	if err := f.svc.ResendOTP(ctx, "a@x.com"); err != nil {
		t.Fatalf("ResendOTP() error = %v", err)
	}
	if len(f.mail.sent) != 1 || !strings.Contains(f.mail.sent[0].HTML, "654321") {
		t.Fatalf("resend email = %+v", f.mail.sent)
	}

	if err := f.svc.ResendOTP(ctx, ""); !errors.Is(err, ErrEmailRequired) {
		t.Fatalf("ResendOTP(\"\") error = %v, want ErrEmailRequired", err)
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "u1", store.Document{"email": "b@x.com", "isVerified": true, "userType": "investor"}, "correct horse")
	f.seedUser(t, "u2", store.Document{"email": "c@x.com", "isVerified": false}, "correct horse")
	f.seedUser(t, "u3", store.Document{"email": "social@x.com", "isVerified": true}, "")

	pendingHash, _ := credentials.HashPassword("pending pass")
	_ = f.store.Set(ctx, store.PendingUsers, "p@x.com", store.Document{"email": "p@x.com", "password": pendingHash})

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{name: "ok", email: "B@x.com", password: "correct horse"},
		{name: "wrong password", email: "b@x.com", password: "nope nope", want: ErrInvalidCredentials},
		{name: "unknown", email: "z@x.com", password: "whatever1", want: ErrInvalidCredentials},
		{name: "unverified", email: "c@x.com", password: "correct horse", want: ErrNotVerified},
		{name: "no password set", email: "social@x.com", password: "whatever1", want: ErrInvalidCredentials},
		{name: "pending right password", email: "p@x.com", password: "pending pass", want: ErrNotVerified},
		{name: "pending wrong password", email: "p@x.com", password: "other pass", want: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, err := f.svc.Login(ctx, tt.email, tt.password)
			if tt.want != nil {
				if !errors.Is(err, tt.want) {
					t.Fatalf("Login() error = %v, want %v", err, tt.want)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login() error = %v", err)
			}
			if sess.AccountID != "u1" || sess.Token == "" {
				t.Fatalf("Login() = %+v", sess)
			}
		})
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "u1", store.Document{"email": "b@x.com", "isVerified": true}, "old password")

	if err := f.svc.ForgotPassword(ctx, "nobody@x.com"); err != nil {
		t.Fatalf("ForgotPassword(unknown) error = %v", err)
	}
	if len(f.mail.sent) != 0 {
		t.Fatal("reset mail sent for unknown email")
	}

	if err := f.svc.ForgotPassword(ctx, "b@x.com"); err != nil {
		t.Fatalf("ForgotPassword() error = %v", err)
	}
	if len(f.mail.sent) != 1 {
		t.Fatalf("sent = %d mails, want 1", len(f.mail.sent))
	}
	body := f.mail.sent[0].HTML
	const marker = "http://localhost:3000/reset-password?token="
	i := strings.Index(body, marker)
	if i < 0 {
		t.Fatalf("reset url missing: %q", body)
	}
	token := body[i+len(marker) : i+len(marker)+64]

	if err := f.svc.ResetPassword(ctx, "not-the-token", "new password"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("ResetPassword(bad token) error = %v, want ErrInvalidResetToken", err)
	}

	if err := f.svc.ResetPassword(ctx, token, "new password"); err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}
	if _, err := f.svc.Login(ctx, "b@x.com", "new password"); err != nil {
		t.Fatalf("Login() with new password error = %v", err)
	}
	if _, err := f.svc.Login(ctx, "b@x.com", "old password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login() with old password error = %v", err)
	}

	creds, _ := f.store.Get(ctx, Credentials, "u1")
	if _, ok := creds["resetPasswordToken"]; ok {
		t.Fatal("reset token not consumed")
	}
	if err := f.svc.ResetPassword(ctx, token, "another password"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("token reuse error = %v, want ErrInvalidResetToken", err)
	}
}

func TestResetPasswordExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "u1", store.Document{"email": "b@x.com"}, "old password")

	_ = f.store.Update(ctx, Credentials, "u1", store.Document{
		"resetPasswordToken":   credentials.HashToken("tok"),
		"resetPasswordExpires": time.Now().Add(-time.Minute).UnixMilli(),
	})

	if err := f.svc.ResetPassword(ctx, "tok", "new password"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("ResetPassword() error = %v, want ErrInvalidResetToken", err)
	}
}

func TestForgotPasswordWithoutCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "u1", store.Document{"email": "social@x.com"}, "")

	if err := f.svc.ForgotPassword(ctx, "social@x.com"); err != nil {
		t.Fatalf("ForgotPassword() error = %v", err)
	}
	creds, err := f.store.Get(ctx, Credentials, "u1")
	if err != nil || creds.String("resetPasswordToken") == "" {
		t.Fatalf("credentials = %v, %v, want reset token stored", creds, err)
	}
}

func TestCompletionStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedUser(t, "inv", store.Document{"email": "i@x.com", "userType": "investor", "isVerified": true, "profileComplete": true}, "")
	f.seedUser(t, "inv2", store.Document{"email": "j@x.com", "userType": "investor", "isVerified": false}, "")
	f.seedUser(t, "inv3", store.Document{"email": "n@x.com", "userType": "investor", "isVerified": true}, "")
	f.seedUser(t, "sh", store.Document{"email": "o@x.com", "userType": "shareholder", "isVerified": true}, "")
	f.seedUser(t, "co1", store.Document{"email": "k@x.com", "userType": "company", "isVerified": true}, "")
	f.seedUser(t, "co2", store.Document{"email": "l@x.com", "userType": "company", "isVerified": true, "companyId": "c1"}, "")
	f.seedUser(t, "co3", store.Document{"email": "m@x.com", "userType": "company", "isVerified": true, "companyId": "c2"}, "")
	_ = f.store.Set(ctx, store.Companies, "c1", store.Document{"isVerified": false})
	_ = f.store.Set(ctx, store.Companies, "c2", store.Document{"isVerified": true})

	tests := []struct {
		id       string
		next     string
		complete bool
	}{
		{id: "inv", next: NextStepDashboard, complete: true},
		{id: "inv2", next: NextStepVerifyEmail, complete: false},
		{id: "inv3", next: NextStepInvestorProfile, complete: false},
		{id: "sh", next: NextStepDashboard, complete: true},
		{id: "co1", next: NextStepCompanyOnboarding, complete: false},
		{id: "co2", next: NextStepCompanyVerification, complete: true},
		{id: "co3", next: NextStepDashboard, complete: true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			st, err := f.svc.CompletionStatus(ctx, tt.id)
			if err != nil {
				t.Fatalf("CompletionStatus() error = %v", err)
			}
			if st.NextStep != tt.next || st.ProfileComplete != tt.complete {
				t.Fatalf("CompletionStatus() = %+v, want next %q complete %v", st, tt.next, tt.complete)
			}
		})
	}

	if _, err := f.svc.CompletionStatus(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("CompletionStatus(missing) error = %v, want ErrUserNotFound", err)
	}
}

func TestUpdateInvestorProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "inv", store.Document{"email": "i@x.com", "userType": "investor", "isVerified": true}, "")

	err := f.svc.UpdateInvestorProfile(ctx, "inv", InvestorProfileInput{
		ChequeSize:        "25L-1Cr",
		InterestedSectors: []string{"fintech", "climate"},
	})
	if err != nil {
		t.Fatalf("UpdateInvestorProfile() error = %v", err)
	}

	user, _ := f.store.Get(ctx, store.Users, "inv")
	if user.String("chequeSize") != "25L-1Cr" || !user.Bool("profileComplete") {
		t.Fatalf("user = %v", user)
	}
	if sectors, _ := user["interestedSectors"].([]any); len(sectors) != 2 || sectors[0] != "fintech" {
		t.Fatalf("interestedSectors = %v", user["interestedSectors"])
	}

	st, err := f.svc.CompletionStatus(ctx, "inv")
	if err != nil || st.NextStep != NextStepDashboard || !st.ProfileComplete {
		t.Fatalf("CompletionStatus() = %+v, %v, want dashboard", st, err)
	}
}

func TestUpdateInvestorProfileErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var missing *validate.MissingFieldError
	err := f.svc.UpdateInvestorProfile(ctx, "inv", InvestorProfileInput{InterestedSectors: []string{"fintech"}})
	if !errors.As(err, &missing) || missing.Field != "chequeSize" {
		t.Fatalf("UpdateInvestorProfile() error = %v, want missing chequeSize", err)
	}
	err = f.svc.UpdateInvestorProfile(ctx, "inv", InvestorProfileInput{ChequeSize: "10L"})
	if !errors.As(err, &missing) || missing.Field != "interestedSectors" {
		t.Fatalf("UpdateInvestorProfile() error = %v, want missing interestedSectors", err)
	}
	err = f.svc.UpdateInvestorProfile(ctx, "ghost", InvestorProfileInput{ChequeSize: "10L", InterestedSectors: []string{"x"}})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("UpdateInvestorProfile() error = %v, want ErrUserNotFound", err)
	}
}

// slowStore widens the window between the users existence check and the
// account write.
type slowStore struct {
	*memstore.Store
	delay time.Duration
}

func (s slowStore) Exists(ctx context.Context, collection, field, value string) (bool, error) {
	time.Sleep(s.delay)
	return s.Store.Exists(ctx, collection, field, value)
}

// capturingCodes is the redis code store, remembering the last code it
// issued.
type capturingCodes struct {
	*otp.Store
	last string
}

func (c *capturingCodes) Issue(ctx context.Context, email string, ttl time.Duration) (string, error) {
	code, err := c.Store.Issue(ctx, email, ttl)
	c.last = code
	return code, err
}

func TestVerifyOTPConcurrentSubmitsCreateOneAccount(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ms := memstore.New()
	mail := &recordingMailer{}
	codes := &capturingCodes{Store: otp.NewStore(rdb)}
	tokens, err := identity.NewJWTIssuer("test-secret", "niveshx", time.Hour)
	if err != nil {
		t.Fatalf("NewJWTIssuer() error = %v", err)
	}
	svc := NewService(Deps{
		Store:         slowStore{Store: ms, delay: 50 * time.Millisecond},
		Codes:         codes,
		VerifyLimiter: newFakeLimiter(100),
		ResendLimiter: newFakeLimiter(100),
		Mailer:        mail,
		Tokens:        tokens,
	}, Config{OTPTTL: 10 * time.Minute, ResetTTL: time.Hour})

	ctx := context.Background()
	err = svc.Register(ctx, RegisterInput{
		FullName: "Asha",
		Email:    "a@x.com",
		Password: "correct horse",
		UserType: UserTypeInvestor,
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	code := codes.last

	const workers = 8
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.VerifyOTP(ctx, "a@x.com", code); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := successes.Load(); got != 1 {
		t.Fatalf("successful verifies = %d, want 1", got)
	}

	users := 0
	for {
		rec, err := ms.FindOne(ctx, store.Users, "email", "a@x.com")
		if errors.Is(err, store.ErrNotFound) {
			break
		}
		if err != nil {
			t.Fatalf("FindOne() error = %v", err)
		}
		users++
		_ = ms.Delete(ctx, store.Users, rec.ID)
	}
	if users != 1 {
		t.Fatalf("users with email a@x.com = %d, want 1", users)
	}
}
