package models

// All lists the tables managed by AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Country{},
		&User{},
		&Payment{},
		&Wallet{},
		&WalletTransaction{},
	}
}
