// Command admin_seed creates the reference countries and an admin account
// with a wallet, then prints a token for the admin API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"payway/internal/config"
	apperrors "payway/internal/errors"
	"payway/internal/logger"
	"payway/internal/models"
	"payway/internal/repositories"
	"payway/internal/services/wallet"
	"payway/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var countries = []models.Country{
	{Code: "SA", Name: "Saudi Arabia", Currency: "SAR", DialCode: "+966"},
	{Code: "KW", Name: "Kuwait", Currency: "KWD", DialCode: "+965"},
	{Code: "AE", Name: "United Arab Emirates", Currency: "AED", DialCode: "+971"},
	{Code: "BH", Name: "Bahrain", Currency: "BHD", DialCode: "+973"},
	{Code: "QA", Name: "Qatar", Currency: "QAR", DialCode: "+974"},
	{Code: "OM", Name: "Oman", Currency: "OMR", DialCode: "+968"},
	{Code: "EG", Name: "Egypt", Currency: "EGP", DialCode: "+20"},
	{Code: "US", Name: "United States", Currency: "USD", DialCode: "+1"},
	{Code: "GB", Name: "United Kingdom", Currency: "GBP", DialCode: "+44"},
	{Code: "IN", Name: "India", Currency: "INR", DialCode: "+91"},
}

func main() {
	_ = config.LoadEnv()
	cfg := config.Load()
	if err := logger.Init(false); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	lg := logger.L()

	adminPhone := os.Getenv("ADMIN_PHONE")
	adminCountry := config.GetEnv("ADMIN_COUNTRY", "SA")
	if adminPhone == "" {
		lg.Fatal("ADMIN_PHONE must be set in environment")
	}

	db, err := repositories.Connect(cfg.DatabaseURL, repositories.DefaultDBConfig, lg)
	if err != nil {
		lg.Fatal("database connection failed", zap.Error(err))
	}
	if err := repositories.Migrate(db); err != nil {
		lg.Fatal("migration failed", zap.Error(err))
	}

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&countries).Error; err != nil {
		lg.Fatal("failed to seed countries", zap.Error(err))
	}

	admin, err := ensureAdmin(db, adminPhone, adminCountry)
	if err != nil {
		lg.Fatal("failed to create admin", zap.Error(err))
	}

	ctx := context.Background()
	users := repositories.NewUserRepository(db)
	wallets := wallet.NewService(repositories.NewWalletRepository(db), users, nil, wallet.Config{}, nil, lg)
	if _, err := wallets.CreateWallet(ctx, admin.ID); err != nil && !errors.Is(err, apperrors.ErrWalletExists) {
		lg.Fatal("failed to create admin wallet", zap.Error(err))
	}

	token, err := utils.GenerateToken(cfg.JWTSecret, admin, config.GetDurationEnv("ADMIN_TOKEN_TTL", 24*time.Hour))
	if err != nil {
		lg.Fatal("failed to sign token", zap.Error(err))
	}
	lg.Info("admin account ready", zap.Uint("user_id", admin.ID), zap.String("phone", admin.Phone))
	fmt.Println(token)
}

func ensureAdmin(db *gorm.DB, phone, countryCode string) (*models.User, error) {
	var admin models.User
	err := db.Where("phone = ?", phone).First(&admin).Error
	if err == nil {
		return &admin, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var country models.Country
	if err := db.Where("code = ?", countryCode).First(&country).Error; err != nil {
		return nil, fmt.Errorf("unknown country %q: %w", countryCode, err)
	}
	admin = models.User{
		FirstName: "Admin",
		Phone:     phone,
		CountryID: country.ID,
		Role:      models.RoleAdmin,
		Status:    models.UserStatusActive,
	}
	if err := db.Create(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}
