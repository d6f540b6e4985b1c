package config

import (
	"database/sql"
	"log"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

var DB *sql.DB

// InitDB opens the MySQL pool from DB_DSN. When DB_DSN is empty the caller
// is expected to fall back to the in-memory store (local development).
func InitDB() {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Println("DB_DSN empty, skipping MySQL init")
		return
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatal("Invalid DB_DSN:", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Fatal("MySQL not reachable:", err)
	}

	DB = db
	log.Println("MySQL connected")
}

func CloseDB() {
	if DB != nil {
		DB.Close()
	}
}
