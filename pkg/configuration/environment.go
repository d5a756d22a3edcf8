package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/sigos-etl/pkg/intervals"
	"github.com/iota-uz/sigos-etl/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c, err := Load([]string{".env", ".env.local"})
	if err != nil {
		panic(err)
	}
	return c
})

func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if fs.FileExists(file) {
			existingFiles = append(existingFiles, file)
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"etl_db"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASS" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type LoadOptions struct {
	ChunkSize      int           `env:"LOAD_CHUNK_SIZE" envDefault:"1000"`
	MaxRetries     int           `env:"LOAD_MAX_RETRIES" envDefault:"3"`
	MaxBackoff     time.Duration `env:"LOAD_MAX_BACKOFF" envDefault:"60s"`
	FailedChunkDir string        `env:"FAILED_CHUNK_DIR" envDefault:"etl/failed_chunks"`
}

func (o *LoadOptions) Validate() error {
	if o.ChunkSize <= 0 {
		return fmt.Errorf("LOAD_CHUNK_SIZE must be positive, got %d", o.ChunkSize)
	}
	if o.MaxRetries < 0 {
		return fmt.Errorf("LOAD_MAX_RETRIES must be non-negative, got %d", o.MaxRetries)
	}
	return nil
}

type ExtractionOptions struct {
	DownloadsDir    string        `env:"DOWNLOADS_DIR" envDefault:"etl/downloads"`
	DownloadTimeout time.Duration `env:"DOWNLOAD_TIMEOUT" envDefault:"5m"`
	CollectionStart string        `env:"COLLECTION_START" envDefault:"01/03/2022"`
	WindowDays      int           `env:"EXTRACTION_WINDOW_DAYS" envDefault:"180"`

	collectionStart time.Time
}

// CollectionStartDate is the parsed COLLECTION_START, the earliest date a full
// extraction reaches back to.
func (o *ExtractionOptions) CollectionStartDate() time.Time {
	return o.collectionStart
}

func (o *ExtractionOptions) validate() error {
	if o.WindowDays <= 0 {
		return fmt.Errorf("EXTRACTION_WINDOW_DAYS must be positive, got %d", o.WindowDays)
	}
	start, err := time.Parse(intervals.DateLayout, o.CollectionStart)
	if err != nil {
		return fmt.Errorf("invalid COLLECTION_START=%q (expected dd/mm/yyyy): %w", o.CollectionStart, err)
	}
	o.collectionStart = start
	return nil
}

type Configuration struct {
	Database   DatabaseOptions
	Load       LoadOptions
	Extraction ExtractionOptions

	ServerPort       int    `env:"PORT" envDefault:"8000"`
	SocketAddress    string `env:"-"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogPath          string `env:"LOG_PATH" envDefault:"logs/etl.log"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

func Use() *Configuration {
	return singleton()
}

// Load builds a Configuration from the given env files plus the process
// environment. Callers outside tests normally go through Use.
func Load(envFiles []string) (*Configuration, error) {
	c := &Configuration{}
	if err := c.load(envFiles); err != nil {
		c.Unload()
		return nil, err
	}
	return c, nil
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 && len(envFiles) > 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}

	if err := c.Load.Validate(); err != nil {
		return fmt.Errorf("load configuration error: %w", err)
	}
	if err := c.Extraction.validate(); err != nil {
		return fmt.Errorf("extraction configuration error: %w", err)
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	c.Database.Opts = c.Database.ConnectionString()
	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}

	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
