package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ciaranmckenna/book-club/internal/entities"
)

var defaultCategories = []entities.Category{
	{Name: "Fiction", Description: "Novels and short stories"},
	{Name: "Non-Fiction", Description: "Biography, history and essays"},
	{Name: "Science", Description: "Popular science and reference"},
	{Name: "Technology", Description: "Computing and engineering"},
	{Name: "Poetry", Description: "Verse collections"},
}

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.User{},
		&entities.UserRole{},
		&entities.Category{},
		&entities.Book{},
		&entities.ReadingList{},
		&entities.Review{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// ISBN is unique only among books that declare one, so a plain unique
	// index would reject the second book with a blank ISBN.
	err = db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_books_isbn_present ON books(isbn) WHERE isbn <> ''`,
	).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create isbn index: %w", err)
	}

	database := &Database{DB: db}

	if err := database.seedCategories(); err != nil {
		return nil, fmt.Errorf("failed to seed categories: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return database, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) seedCategories() error {
	for _, category := range defaultCategories {
		var existing entities.Category
		result := d.DB.Where("name = ?", category.Name).First(&existing)
		if result.Error == gorm.ErrRecordNotFound {
			if err := d.DB.Create(&category).Error; err != nil {
				return fmt.Errorf("failed to create category %s: %w", category.Name, err)
			}
			log.Printf("Created category: %s", category.Name)
		}
	}
	return nil
}
