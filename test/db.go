package test

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/celestiaorg/reloader/internal/db"
)

// NewFileBasedTestDB creates a new file-based SQLite database for testing.
// It returns the migrated database connection and the path to the temporary
// directory holding it.
func NewFileBasedTestDB() (*gorm.DB, string, error) {
	tmpDir, err := os.MkdirTemp("", "reloader_test")
	if err != nil {
		return nil, "", fmt.Errorf("failed to create temporary directory: %w", err)
	}
	conn, err := db.New(db.Options{
		Driver:     db.DriverSQLite,
		SQLitePath: filepath.Join(tmpDir, "reloader_test.db"),
		LogLevel:   gormlogger.Silent,
	})
	if err != nil {
		// Try to clean up the temporary directory, but don't fail if cleanup fails
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			fmt.Printf("Warning: failed to remove temporary directory after database error: %v\n", rmErr)
		}
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}
	return conn, tmpDir, nil
}

// CleanupTestDB closes the database connection and removes the temporary directory.
func CleanupTestDB(conn *gorm.DB, tmpDir string) {
	if conn != nil {
		sqlDB, err := conn.DB()
		if err == nil && sqlDB != nil {
			if closeErr := sqlDB.Close(); closeErr != nil {
				fmt.Printf("Error closing database connection: %v\n", closeErr)
			}
		}
	}
	if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
		fmt.Printf("Error removing temporary directory: %v\n", rmErr)
	}
}
