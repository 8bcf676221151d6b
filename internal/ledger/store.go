// Package ledger owns the transactions and accounts tables and composes
// every mutation with a sync of the backing file.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"finance-tracker/internal/catalog"
	"finance-tracker/internal/config"
	"finance-tracker/internal/database"
	"finance-tracker/internal/mirror"
	"finance-tracker/internal/models"
	"finance-tracker/internal/util"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Options tune validation and hashing.
type Options struct {
	// StrictCategories rejects category/subcategory pairs that are not in
	// the catalog. Off reproduces the accept-anything behaviour.
	StrictCategories bool
	Hasher           util.PasswordHasher
	// EncryptKey encrypts audit details; empty stores them in clear.
	EncryptKey string
	Now        func() time.Time
}

// Store is the handle for one backing file. It is passed explicitly to
// every caller; there is no package-level connection.
type Store struct {
	db   *gorm.DB
	path string
	opts Options
}

var _ mirror.Source = (*Store)(nil)

// NewStore wraps an already migrated database living at path.
func NewStore(db *gorm.DB, path string, opts Options) *Store {
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Store{db: db, path: path, opts: opts}
}

// Open initializes and migrates the database described by cfg.
func Open(cfg config.DatabaseConfig, opts Options) (*Store, error) {
	db, err := database.Init(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		if sqlDB, e := db.DB(); e == nil {
			sqlDB.Close()
		}
		return nil, err
	}
	return NewStore(db, cfg.Path, opts), nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Path is the backing file.
func (s *Store) Path() string {
	return s.path
}

// NewTransaction is the input of InsertTransaction.
type NewTransaction struct {
	Owner       *uint
	Date        time.Time
	Category    string
	Subcategory string
	Amount      decimal.Decimal
	Comment     string
}

// Query filters QueryTransactions. A nil Owner means every owner; a zero
// Year means every year.
type Query struct {
	Owner *uint
	Year  int
}

// SubcategoryTotal is one bar of the investment chart.
type SubcategoryTotal struct {
	Subcategory string          `json:"subcategory"`
	Total       decimal.Decimal `json:"total"`
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// InsertTransaction validates and stores a new row together with its audit
// entry. The row is committed before it returns.
func (s *Store) InsertTransaction(ctx context.Context, in NewTransaction) (*models.Transaction, error) {
	if err := util.ValidateAmount(in.Amount); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNegativeAmount, in.Amount)
	}
	if in.Date.IsZero() {
		return nil, ErrInvalidDate
	}
	if s.opts.StrictCategories && !catalog.Valid(in.Category, in.Subcategory) {
		return nil, fmt.Errorf("%w: %q/%q", ErrInvalidCategory, in.Category, in.Subcategory)
	}

	tx := models.Transaction{
		OwnerID:     in.Owner,
		Date:        dateOnly(in.Date),
		Category:    in.Category,
		Subcategory: in.Subcategory,
		Amount:      in.Amount,
		Comment:     in.Comment,
		CreatedAt:   s.opts.Now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if err := db.Create(&tx).Error; err != nil {
			return err
		}
		return s.audit(ctx, db, in.Owner, models.ActionTransactionInsert,
			fmt.Sprintf("id=%d date=%s %s/%s amount=%s",
				tx.ID, tx.Date.Format(util.DateLayout), tx.Category, tx.Subcategory, tx.Amount))
	})
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	return &tx, nil
}

// QueryTransactions returns matching rows ordered by date, then id.
// The year filter applies to the transaction date, not created_at.
func (s *Store) QueryTransactions(ctx context.Context, q Query) ([]models.Transaction, error) {
	db := s.db.WithContext(ctx).Model(&models.Transaction{})
	if q.Owner != nil {
		db = db.Where("owner_id = ?", *q.Owner)
	}
	if q.Year != 0 {
		start := time.Date(q.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		db = db.Where("date >= ? AND date < ?", start, start.AddDate(1, 0, 0))
	}

	var out []models.Transaction
	if err := db.Order("date ASC, id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	return out, nil
}

// DeleteTransactions removes the rows with the given ids in one database
// transaction. Unknown ids are ignored. A non-nil scope restricts the
// delete to that owner's rows. actor is recorded on the audit entry.
func (s *Store) DeleteTransactions(ctx context.Context, ids []uint, scope, actor *uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		q := db.Where("id IN ?", ids)
		if scope != nil {
			q = q.Where("owner_id = ?", *scope)
		}
		res := q.Delete(&models.Transaction{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		if deleted == 0 {
			return nil
		}
		return s.audit(ctx, db, actor, models.ActionTransactionDelete,
			fmt.Sprintf("ids=%v deleted=%d", ids, deleted))
	})
	if err != nil {
		return 0, fmt.Errorf("delete transactions: %w", err)
	}
	return deleted, nil
}

// CategoryTotals sums amounts of one category per subcategory, sorted by
// subcategory name.
func (s *Store) CategoryTotals(ctx context.Context, q Query, category string) ([]SubcategoryTotal, error) {
	rows, err := s.QueryTransactions(ctx, q)
	if err != nil {
		return nil, err
	}

	sums := map[string]decimal.Decimal{}
	for _, t := range rows {
		if t.Category != category {
			continue
		}
		sums[t.Subcategory] = sums[t.Subcategory].Add(t.Amount)
	}

	out := make([]SubcategoryTotal, 0, len(sums))
	for sub, total := range sums {
		out = append(out, SubcategoryTotal{Subcategory: sub, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subcategory < out[j].Subcategory })
	return out, nil
}

// InvestmentSummary is CategoryTotals for the Investment category.
func (s *Store) InvestmentSummary(ctx context.Context, q Query) ([]SubcategoryTotal, error) {
	return s.CategoryTotals(ctx, q, catalog.Investment)
}

// RegisterAccount creates an account. Usernames are unique ignoring case;
// a taken name returns ErrUsernameTaken and leaves the existing row alone.
func (s *Store) RegisterAccount(ctx context.Context, username, password string, admin bool) (*models.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidAccount
	}

	hash, err := s.opts.Hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acc := models.Account{
		Username:     username,
		PasswordHash: hash,
		IsAdmin:      admin,
		CreatedAt:    s.opts.Now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		var count int64
		if err := db.Model(&models.Account{}).
			Where("LOWER(username) = LOWER(?)", username).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrUsernameTaken
		}
		if err := db.Create(&acc).Error; err != nil {
			return err
		}
		return s.audit(ctx, db, &acc.ID, models.ActionAccountRegister,
			fmt.Sprintf("username=%s admin=%t", acc.Username, acc.IsAdmin))
	})
	if errors.Is(err, ErrUsernameTaken) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("register account: %w", err)
	}
	return &acc, nil
}

// Authenticate returns the account only when the username exists and the
// password matches. Every other outcome is ErrAccessDenied, except storage
// failures.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*models.Account, error) {
	var acc models.Account
	err := s.db.WithContext(ctx).
		Where("LOWER(username) = LOWER(?)", strings.TrimSpace(username)).
		First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccessDenied
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if !s.opts.Hasher.Check(password, acc.PasswordHash) {
		return nil, ErrAccessDenied
	}
	return &acc, nil
}

// Account loads an account by id, or gorm.ErrRecordNotFound.
func (s *Store) Account(ctx context.Context, id uint) (*models.Account, error) {
	var acc models.Account
	if err := s.db.WithContext(ctx).First(&acc, id).Error; err != nil {
		return nil, err
	}
	return &acc, nil
}

// AuditLogs returns the newest entries first, with details decrypted.
// A nil account returns entries of every account.
func (s *Store) AuditLogs(ctx context.Context, account *uint, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	db := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if account != nil {
		db = db.Where("account_id = ?", *account)
	}

	var logs []models.AuditLog
	if err := db.Order("id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	for i := range logs {
		logs[i].Detail = util.DecryptField(s.opts.EncryptKey, logs[i].Detail)
	}
	return logs, nil
}

// WithRequestID tags audit entries written under ctx with id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

type requestIDKey struct{}

func (s *Store) audit(ctx context.Context, db *gorm.DB, account *uint, action, detail string) error {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		detail = "req=" + id + " " + detail
	}
	enc, err := util.EncryptField(s.opts.EncryptKey, detail)
	if err != nil {
		return fmt.Errorf("encrypt audit detail: %w", err)
	}
	return db.Create(&models.AuditLog{
		AccountID: account,
		Action:    action,
		Detail:    enc,
		CreatedAt: s.opts.Now(),
	}).Error
}

// Snapshot checkpoints the WAL into the main file and returns the whole
// backing file.
func (s *Store) Snapshot(ctx context.Context) ([]byte, error) {
	if err := s.db.WithContext(ctx).Exec("PRAGMA wal_checkpoint(TRUNCATE)").Error; err != nil {
		return nil, fmt.Errorf("checkpoint: %w", err)
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return b, nil
}
