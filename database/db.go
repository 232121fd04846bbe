package database

import (
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"familyquest/config"
	applog "familyquest/logger"

	mysqldriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the database selected by DB_DRIVER with pooling and retry.
// It supports role-based connections by using DB_ROLE env var ("read" or "write").
func Connect() (*gorm.DB, error) {
	if DB != nil {
		return DB, nil
	}

	driver := strings.ToLower(config.Getenv("DB_DRIVER", "mysql"))
	dialector, err := openDialector(driver)
	if err != nil {
		return nil, err
	}

	// GORM logger: verbose in development
	var gormLogger logger.Interface
	if strings.ToLower(config.Getenv("ENV", "development")) == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	} else {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	// Retry connection with exponential backoff
	maxRetries := config.GetInt("DB_CONNECT_RETRIES", 5)
	if maxRetries < 1 {
		maxRetries = 1
	}
	var db *gorm.DB
	backoff := time.Second
	for attempt := 0; attempt < maxRetries; attempt++ {
		db, err = gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
		if err == nil {
			break
		}
		applog.L().Warn("database connect failed", zap.Int("attempt", attempt+1), zap.Error(err))
		time.Sleep(backoff)
		backoff *= 2
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// sqlite serializes writers; one connection keeps conditional updates from racing on SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(config.GetInt("DB_MAX_OPEN_CONNS", 25))
		sqlDB.SetMaxIdleConns(config.GetInt("DB_MAX_IDLE_CONNS", 25))
		sqlDB.SetConnMaxLifetime(time.Duration(config.GetInt("DB_CONN_MAX_LIFETIME", 3600)) * time.Second)
	}

	if config.GetBool("DB_PING_ON_CONNECT", true) {
		if err := pingWithTimeout(sqlDB, 5*time.Second); err != nil {
			return nil, fmt.Errorf("database ping failed: %w", err)
		}
	}

	DB = db
	return DB, nil
}

// OpenSQLite opens a sqlite database at dsn without touching the package
// handle. Tests pass "file:<name>?mode=memory&cache=shared".
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func openDialector(driver string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		dsn, err := mysqlDSN()
		if err != nil {
			return nil, err
		}
		return gormmysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(postgresDSN()), nil
	case "sqlite":
		return sqlite.Open(config.Getenv("DB_NAME", "familyquest.db")), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

func credentials() (user, pass string) {
	user = config.Getenv("DB_USER", "root")
	pass = config.Getenv("DB_PASS", "")
	// Allow role override: "read" will try DB_READ_USER/DB_READ_PASS, "write" uses DB_USER
	if strings.ToLower(config.Getenv("DB_ROLE", "write")) == "read" {
		if ruser := config.Getenv("DB_READ_USER", ""); ruser != "" {
			user = ruser
			pass = config.Getenv("DB_READ_PASS", "")
		}
	}
	return user, pass
}

func mysqlDSN() (string, error) {
	host := config.Getenv("DB_HOST", "127.0.0.1")
	port := config.Getenv("DB_PORT", "3306")
	name := config.Getenv("DB_NAME", "familyquest")
	params := config.Getenv("DB_PARAMS", "charset=utf8mb4&parseTime=True&loc=UTC")
	user, pass := credentials()

	// Allow explicit DSN override
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		if !strings.Contains(params, "tls=") {
			// DB_TLS: skip, preferred, true
			tlsMode := config.Getenv("DB_TLS", "true")
			if tlsMode == "true" || tlsMode == "preferred" {
				if config.GetBool("DB_TLS_VERIFY", false) {
					params += "&tls=custom"
				} else {
					params += "&tls=true"
				}
			}
		}
		for _, p := range []string{"timeout", "readTimeout", "writeTimeout"} {
			if !strings.Contains(params, p+"=") {
				params += "&" + p + "=10s"
			}
		}
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, name, params)
	}

	safeDSN := dsn
	if pass != "" {
		safeDSN = strings.Replace(safeDSN, pass, "******", 1)
	}
	applog.L().Info("database dsn", zap.String("driver", "mysql"), zap.String("dsn", safeDSN))

	if strings.Contains(dsn, "tls=custom") {
		if err := registerTLS(); err != nil {
			return "", err
		}
	}
	return dsn, nil
}

func postgresDSN() string {
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		return dsn
	}
	user, pass := credentials()
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		config.Getenv("DB_HOST", "127.0.0.1"),
		config.Getenv("DB_PORT", "5432"),
		user, pass,
		config.Getenv("DB_NAME", "familyquest"),
		config.Getenv("DB_SSLMODE", "require"))
}

// registerTLS registers the "custom" TLS config for strict certificate validation.
func registerTLS() error {
	tlsCfg := &tls.Config{}
	if caPath := config.Getenv("DB_TLS_CA_PATH", ""); caPath != "" {
		caCert, err := os.ReadFile(caPath)
		if err != nil {
			return fmt.Errorf("failed reading DB TLS CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return errors.New("failed to append CA certs")
		}
		tlsCfg.RootCAs = pool
	}
	clientCert := config.Getenv("DB_TLS_CLIENT_CERT", "")
	clientKey := config.Getenv("DB_TLS_CLIENT_KEY", "")
	if clientCert != "" && clientKey != "" {
		cert, err := tls.LoadX509KeyPair(clientCert, clientKey)
		if err != nil {
			return fmt.Errorf("failed to load client cert/key: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}
	return mysqldriver.RegisterTLSConfig("custom", tlsCfg)
}

func pingWithTimeout(db *sql.DB, timeout time.Duration) error {
	ch := make(chan error, 1)
	go func() {
		ch <- db.Ping()
	}()
	select {
	case err := <-ch:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("ping timeout after %s", timeout)
	}
}
