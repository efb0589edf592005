// Package auth implements login, logout and registration for the web
// frontend.
//
// Passwords never reach bcrypt directly: the game client sends the md5 hex
// digest of the password, so the stored hash is bcrypt(md5hex(password))
// and the web login computes the same digest before verifying. Successful
// verifications are memoized in a cache.CredentialCache keyed by the stored
// bcrypt hash.
package auth

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/go-while/go-guweb/internal/cache"
	"github.com/go-while/go-guweb/internal/events"
	"github.com/go-while/go-guweb/internal/geoip"
	"github.com/go-while/go-guweb/internal/models"
)

// Store is the part of the database the flows need
type Store interface {
	AccountChecker
	GetUserBySafeName(ctx context.Context, safeName string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	IsRegistrationEnabled(ctx context.Context) (enabled bool, ok bool, err error)
}

// Options wires a Service
type Options struct {
	Store   Store
	Cache   cache.CredentialCache
	Locator geoip.Locator    // nil resolves every address to models.UnknownCountry
	Events  events.Publisher // nil disables events

	Registration        bool // default when the store has no registration_enabled row
	DisallowedNames     []string
	DisallowedPasswords []string
	BcryptCost          int
	Debug               bool
}

// RegisterRequest is the submitted registration form
type RegisterRequest struct {
	Username   string
	Email      string
	Password   string
	RemoteAddr string // client IP, used for the country lookup
}

// Service runs the authentication and registration flows
type Service struct {
	*Validator

	store        Store
	cache        cache.CredentialCache
	locator      geoip.Locator
	events       events.Publisher
	registration bool
	bcryptCost   int
	debug        bool

	// registerMux serializes hash-and-persist; validation runs outside it
	registerMux sync.Mutex
	eventsWG    sync.WaitGroup

	compareHash  func(hash, password []byte) error
	generateHash func(password []byte, cost int) ([]byte, error)
	now          func() time.Time
}

// NewService creates the auth service
func NewService(opts Options) *Service {
	if opts.Cache == nil {
		opts.Cache = cache.NewMemoryCache()
	}
	if opts.Events == nil {
		opts.Events = events.NopPublisher{}
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		Validator:    NewValidator(opts.Store, opts.DisallowedNames, opts.DisallowedPasswords),
		store:        opts.Store,
		cache:        opts.Cache,
		locator:      opts.Locator,
		events:       opts.Events,
		registration: opts.Registration,
		bcryptCost:   opts.BcryptCost,
		debug:        opts.Debug,
		compareHash:  bcrypt.CompareHashAndPassword,
		generateHash: bcrypt.GenerateFromPassword,
		now:          time.Now,
	}
}

// Digest returns the md5 hex digest the stored bcrypt hash is computed over
func Digest(password string) string {
	sum := md5.Sum([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Login verifies username/password and returns the session snapshot.
// current is the caller's session user; nil means anonymous.
func (s *Service) Login(ctx context.Context, current *models.SessionUser, username, password string) (*models.SessionUser, error) {
	if current != nil {
		return nil, ErrAlreadyAuthenticated
	}
	start := s.now()

	user, err := s.store.GetUserBySafeName(ctx, models.SafeName(username))
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", username, err)
	}
	// the bot's stored hash is not a bcrypt hash and must never match
	if user == nil || user.ID == models.BotUserID {
		s.debugf("%s's login failed - account doesn't exist.", username)
		return nil, ErrAccountNotFound
	}

	if !s.checkPassword(ctx, user.PwBcrypt, Digest(password)) {
		s.debugf("%s's login failed - pw incorrect.", username)
		return nil, ErrBadPassword
	}

	if !user.Priv.Has(models.Verified) {
		s.debugf("%s's login failed - not verified.", username)
		return nil, ErrNotVerified
	}
	if !user.Priv.Has(models.Normal) {
		s.debugf("%s's login failed - banned.", username)
		return nil, ErrBanned
	}

	s.debugf("%s's login succeeded.", username)
	s.debugf("Login took %.2fms!", float64(s.now().Sub(start).Microseconds())/1000)
	return models.NewSessionUser(user), nil
}

// checkPassword compares digest against the stored hash, consulting the
// cache before running bcrypt
func (s *Service) checkPassword(ctx context.Context, pwBcrypt, digest string) bool {
	if cached, ok := s.cache.Get(ctx, pwBcrypt); ok {
		return cached == digest
	}
	if err := s.compareHash([]byte(pwBcrypt), []byte(digest)); err != nil {
		return false
	}
	s.cache.Set(ctx, pwBcrypt, digest)
	return true
}

// Logout checks that there is a session to tear down
func (s *Service) Logout(_ context.Context, current *models.SessionUser) error {
	if current == nil {
		return ErrNotAuthenticated
	}
	s.debugf("%s logged out.", current.Name)
	return nil
}

// RegistrationEnabled reports whether new accounts may be created. The
// store's registration_enabled row wins over the configured default.
func (s *Service) RegistrationEnabled(ctx context.Context) bool {
	enabled, ok, err := s.store.IsRegistrationEnabled(ctx)
	if err != nil {
		log.Printf("[AUTH]: reading registration toggle failed, using config default: %v", err)
		return s.registration
	}
	if !ok {
		return s.registration
	}
	return enabled
}

// Register creates an unverified account from the registration form
func (s *Service) Register(ctx context.Context, current *models.SessionUser, req RegisterRequest) (*models.User, error) {
	if current != nil {
		return nil, ErrAlreadyAuthenticated
	}
	if !s.RegistrationEnabled(ctx) {
		return nil, ErrRegistrationDisabled
	}
	user, err := s.CreateAccount(ctx, req, models.Normal)
	if err != nil {
		return nil, err
	}
	s.debugf("%s has registered - awaiting verification.", user.Name)
	return user, nil
}

// CreateAccount validates req and persists an account with priv.
// It skips the session and registration toggle guards.
func (s *Service) CreateAccount(ctx context.Context, req RegisterRequest, priv models.Privileges) (*models.User, error) {
	if err := s.ValidateUsername(ctx, req.Username); err != nil {
		return nil, err
	}
	if err := s.ValidateEmail(ctx, req.Email); err != nil {
		return nil, err
	}
	if err := s.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	user, err := s.persist(ctx, req, priv)
	if err != nil {
		return nil, err
	}
	s.publishRegistered(user)
	return user, nil
}

func (s *Service) persist(ctx context.Context, req RegisterRequest, priv models.Privileges) (*models.User, error) {
	s.registerMux.Lock()
	defer s.registerMux.Unlock()

	digest := Digest(req.Password)
	hash, err := s.generateHash([]byte(digest), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	// cache result for login
	s.cache.Set(ctx, string(hash), digest)

	now := s.now().Unix()
	user := &models.User{
		Name:           req.Username,
		SafeName:       models.SafeName(req.Username),
		Email:          req.Email,
		PwBcrypt:       string(hash),
		Priv:           priv,
		Country:        geoip.Resolve(s.locator, req.RemoteAddr),
		CreationTime:   now,
		LatestActivity: now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user %q: %w", user.SafeName, err)
	}
	return user, nil
}

// publishRegistered sends the event in the background; failures are only logged
func (s *Service) publishRegistered(user *models.User) {
	ev := events.UserRegistered{
		UserID:       user.ID,
		Name:         user.Name,
		SafeName:     user.SafeName,
		Country:      user.Country,
		RegisteredAt: time.Unix(user.CreationTime, 0).UTC().Format(time.RFC3339),
	}
	s.eventsWG.Add(1)
	go func() {
		defer s.eventsWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.events.PublishUserRegistered(ctx, ev); err != nil {
			log.Printf("[AUTH]: publishing user.registered for %s failed: %v", ev.SafeName, err)
		}
	}()
}

// Wait blocks until pending event publishes are done
func (s *Service) Wait() {
	s.eventsWG.Wait()
}

func (s *Service) debugf(format string, args ...interface{}) {
	if s.debug {
		log.Printf("[AUTH]: "+format, args...)
	}
}
