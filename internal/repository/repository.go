package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/kennedy-ak/hitech-store/internal/domain"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrCartItemNotFound   = errors.New("cart item not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrAddressNotFound    = errors.New("shipping address not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrAlreadyProcessed   = errors.New("payment already processed for this reference")
	ErrDuplicateReference = errors.New("order with this payment reference already exists")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type ProductRepository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
}

type CartRepository interface {
	GetCartItems(ctx context.Context, owner string) ([]domain.CartItem, error)
	UpsertCartItem(ctx context.Context, owner string, productID int64, quantity int) error
	SetItemQuantity(ctx context.Context, owner string, productID int64, quantity int) error
	RemoveCartItem(ctx context.Context, owner string, productID int64) error
	ClearCart(ctx context.Context, owner string) error
	MergeCarts(ctx context.Context, fromOwner, toOwner string) error
}

type OrderRepository interface {
	// CreateOrder persists the order and its items and clears the
	// consumed cart in a single transaction.
	CreateOrder(ctx context.Context, order *domain.Order, cartOwner string) error
	GetOrderByID(ctx context.Context, id uuid.UUID, userID int64) (*domain.Order, error)
	GetOrderByReference(ctx context.Context, reference string) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID int64) ([]*domain.Order, error)
	// MarkPaymentResult transitions the order's payment state out of
	// PENDING exactly once; later calls for the same reference return
	// ErrAlreadyProcessed.
	MarkPaymentResult(ctx context.Context, reference string, succeeded bool) error
}

type AddressRepository interface {
	ListAddresses(ctx context.Context, userID int64) ([]domain.ShippingAddress, error)
	GetAddress(ctx context.Context, id, userID int64) (*domain.ShippingAddress, error)
	CreateAddress(ctx context.Context, addr *domain.ShippingAddress) error
	UpdateAddress(ctx context.Context, addr *domain.ShippingAddress) error
	DeleteAddress(ctx context.Context, id, userID int64) error
	SetDefaultAddress(ctx context.Context, id, userID int64) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) error
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, token string) (*domain.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "store_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
