package store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ipcam-cli/pkg/models"
)

var (
	ErrNotFound  = errors.New("camera not found")
	ErrDuplicate = errors.New("camera name or address already stored")
	ErrInvalid   = errors.New("invalid camera data")
)

var nameRe = regexp.MustCompile(`^[0-9A-Za-zÁÉÍÓÚáéíóú_]{1,30}$`)

// Store keeps camera credentials in a single table.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Open connects with driver "postgres" (dsn is a libpq DSN) or "sqlite"
// (dsn is a file path).
func Open(driver, dsn string) (*gorm.DB, error) {
	var dial gorm.Dialector
	switch driver {
	case "postgres", "":
		dial = postgres.Open(dsn)
	case "sqlite":
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
		dial = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}

	return gorm.Open(dial, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// ensureDir creates the parent directory of a sqlite database file.
func ensureDir(dsn string) error {
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}
	return nil
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&models.Camera{})
}

func (s *Store) List(ctx context.Context) ([]models.Camera, error) {
	var cams []models.Camera
	err := s.db.WithContext(ctx).Order("id").Find(&cams).Error
	return cams, err
}

func (s *Store) Get(ctx context.Context, name string) (*models.Camera, error) {
	var cam models.Camera
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&cam).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cam, nil
}

// Add stores a new camera and returns the updated list.
func (s *Store) Add(ctx context.Context, cam models.Camera) ([]models.Camera, error) {
	if err := Validate(cam); err != nil {
		return nil, err
	}
	cam.ID = 0

	if err := s.checkUnique(ctx, cam); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&cam).Error; err != nil {
		return nil, err
	}
	return s.List(ctx)
}

// Edit replaces every field of the camera with the given id.
func (s *Store) Edit(ctx context.Context, id uint, cam models.Camera) ([]models.Camera, error) {
	if err := Validate(cam); err != nil {
		return nil, err
	}
	cam.ID = id

	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Camera{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	if err := s.checkUnique(ctx, cam); err != nil {
		return nil, err
	}

	result := s.db.WithContext(ctx).Model(&models.Camera{}).Where("id = ?", id).Updates(map[string]any{
		"name":      cam.Name,
		"ip_camera": cam.Address,
		"username":  cam.Username,
		"password":  cam.Password,
	})
	if result.Error != nil {
		return nil, result.Error
	}
	return s.List(ctx)
}

// Delete removes the camera called name and returns the updated list.
func (s *Store) Delete(ctx context.Context, name string) ([]models.Camera, error) {
	result := s.db.WithContext(ctx).Delete(&models.Camera{}, "name = ?", name)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.List(ctx)
}

func (s *Store) checkUnique(ctx context.Context, cam models.Camera) error {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Camera{}).
		Where("(name = ? OR ip_camera = ?) AND id <> ?", cam.Name, cam.Address, cam.ID).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrDuplicate
	}
	return nil
}

// Validate applies the rules of the camera form: a short name, a dotted
// quad address and non-empty credentials.
func Validate(cam models.Camera) error {
	if !nameRe.MatchString(cam.Name) {
		return fmt.Errorf("%w: name %q", ErrInvalid, cam.Name)
	}
	if !IsIPv4(cam.Address) {
		return fmt.Errorf("%w: address %q is not an IPv4 address", ErrInvalid, cam.Address)
	}
	if cam.Username == "" || cam.Password == "" {
		return fmt.Errorf("%w: username and password are required", ErrInvalid)
	}
	return nil
}

// IsIPv4 accepts only a plain dotted quad.
func IsIPv4(s string) bool {
	ip := net.ParseIP(s)
	return ip != nil && ip.To4() != nil && strings.Count(s, ".") == 3 && !strings.Contains(s, ":")
}
