package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/molinet/emberfall/internal/model"
)

// ErrBadCredentials is returned when a password check fails or the
// account is banned.
var ErrBadCredentials = errors.New("bad credentials")

// AccountRepository manages login records.
type AccountRepository struct {
	db *DB
}

// NewAccountRepository creates an account repository.
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// HashPassword hashes a password with bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Get retrieves an account by login. Returns nil, nil if the account
// does not exist.
func (r *AccountRepository) Get(ctx context.Context, login string) (*model.Account, error) {
	login = strings.ToLower(login)
	var acc model.Account
	err := r.db.pool.QueryRow(ctx,
		`SELECT login, password, banned, COALESCE(last_ip, ''), COALESCE(last_active, 'epoch'), created_at
		 FROM accounts WHERE login = $1`, login,
	).Scan(&acc.Login, &acc.PasswordHash, &acc.Banned, &acc.LastIP, &acc.LastActive, &acc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying account %q: %w", login, err)
	}
	return &acc, nil
}

// Create inserts a new account with the given password hash.
func (r *AccountRepository) Create(ctx context.Context, login, passwordHash, ip string) error {
	login = strings.ToLower(login)
	_, err := r.db.pool.Exec(ctx,
		`INSERT INTO accounts (login, password, last_active, last_ip)
		 VALUES ($1, $2, $3, $4)`,
		login, passwordHash, time.Now(), ip,
	)
	if err != nil {
		return fmt.Errorf("creating account %q: %w", login, err)
	}
	slog.Info("account created", "login", login)
	return nil
}

// Authenticate checks the password against the stored hash, creating
// the account on first login. Banned accounts always fail.
func (r *AccountRepository) Authenticate(ctx context.Context, login, password, ip string) (*model.Account, error) {
	acc, err := r.Get(ctx, login)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		hash, err := HashPassword(password)
		if err != nil {
			return nil, err
		}
		if err := r.Create(ctx, login, hash, ip); err != nil {
			return nil, err
		}
		return r.Get(ctx, login)
	}

	if acc.Banned {
		return nil, ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	if err := r.touchLogin(ctx, acc.Login, ip); err != nil {
		slog.Error("updating last login", "login", acc.Login, "error", err)
	}
	return acc, nil
}

// touchLogin updates last_active and last_ip on successful login.
func (r *AccountRepository) touchLogin(ctx context.Context, login, ip string) error {
	_, err := r.db.pool.Exec(ctx,
		`UPDATE accounts SET last_active = $1, last_ip = $2 WHERE login = $3`,
		time.Now(), ip, strings.ToLower(login),
	)
	if err != nil {
		return fmt.Errorf("updating last login for %q: %w", login, err)
	}
	return nil
}
