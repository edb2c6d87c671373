package infra

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"amplification-report/app/src/infra/utils"
	"amplification-report/app/src/shared/constants"
)

// ErrUsage is returned by ParseArgs when the command line cannot be interpreted.
var ErrUsage = errors.New("usage error")

type Config struct {
	ProcessCount     int
	FilenameTemplate string
	MergeMode        string
	Save             bool
	Publish          bool
	MetricsFile      string

	HTTPPort string
	GRPCPort string

	DatabaseDSN      string
	DatabaseHost     string
	DatabasePort     string
	DatabaseUser     string
	DatabasePassword string
	DatabaseName     string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RedisTTLSeconds int
}

// LoadConfig resolves everything that can come from the environment. The
// process count is only ever given on the command line.
func LoadConfig() Config {
	return Config{
		FilenameTemplate: getEnv("AMPLIFY_PREFIX", constants.DefaultReportTemplate),
		MergeMode:        getEnv("AMPLIFY_MERGE", "last"),
		MetricsFile:      os.Getenv("METRICS_FILE"),
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		GRPCPort:         getEnv("GRPC_PORT", "50051"),
		DatabaseDSN:      os.Getenv("DB_DSN"),
		DatabaseHost:     os.Getenv("DB_HOST"),
		DatabasePort:     os.Getenv("DB_PORT"),
		DatabaseUser:     os.Getenv("DB_USER"),
		DatabasePassword: os.Getenv("DB_PASSWORD"),
		DatabaseName:     os.Getenv("DB_NAME"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		RedisTTLSeconds:  getEnvInt("REDIS_TTL_SECONDS", 3600),
	}
}

// ParseArgs applies the amplify command line on top of cfg. Flags may be given
// before or after the mpiproc positional argument.
func ParseArgs(cfg Config, args []string, output io.Writer) (Config, error) {
	fs := flag.NewFlagSet("amplify", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: amplify [--prefix TEMPLATE] [--merge last|sum] [--save] [--publish] [--metrics-file PATH] mpiproc")
		fs.PrintDefaults()
	}

	fs.StringVar(&cfg.FilenameTemplate, "prefix", cfg.FilenameTemplate, "report filename template with one {} placeholder for the process index")
	fs.StringVar(&cfg.MergeMode, "merge", cfg.MergeMode, "how repeated measurement names combine across files: last or sum")
	fs.BoolVar(&cfg.Save, "save", cfg.Save, "store the run in Postgres")
	fs.BoolVar(&cfg.Publish, "publish", cfg.Publish, "publish the run to Redis")
	fs.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "write collection metrics in Prometheus text format to this path")

	rest, positional := splitNegativeCounts(fs, args)
	for {
		if err := fs.Parse(rest); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return cfg, err
			}
			return cfg, fmt.Errorf("%w: %v", ErrUsage, err)
		}
		rest = fs.Args()
		if len(rest) == 0 {
			break
		}
		positional = append(positional, rest[0])
		rest = rest[1:]
	}

	if len(positional) != 1 {
		fs.Usage()
		return cfg, fmt.Errorf("%w: expected exactly one mpiproc argument, got %d", ErrUsage, len(positional))
	}

	count, err := strconv.Atoi(positional[0])
	if err != nil {
		fs.Usage()
		return cfg, fmt.Errorf("%w: mpiproc must be an integer, got %q", ErrUsage, positional[0])
	}
	cfg.ProcessCount = count

	return cfg, nil
}

// splitNegativeCounts pulls negative integers out of args so the flag parser
// does not read them as flags. A token that is the value of a preceding
// non-boolean flag stays in place.
func splitNegativeCounts(fs *flag.FlagSet, args []string) (rest, counts []string) {
	for i, arg := range args {
		if strings.HasPrefix(arg, "-") && !flagTakesValue(fs, args[:i]) {
			if _, err := strconv.Atoi(arg); err == nil {
				counts = append(counts, arg)
				continue
			}
		}
		rest = append(rest, arg)
	}
	return rest, counts
}

func flagTakesValue(fs *flag.FlagSet, before []string) bool {
	if len(before) == 0 {
		return false
	}
	prev := before[len(before)-1]
	if !strings.HasPrefix(prev, "-") || strings.Contains(prev, "=") {
		return false
	}
	f := fs.Lookup(strings.TrimLeft(prev, "-"))
	if f == nil {
		return false
	}
	if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
		return false
	}
	return true
}

func LogConfig(ctx context.Context, logger *Logger, cfg Config) {
	logger.Printf(ctx, "MPIPROC=%d", cfg.ProcessCount)
	logger.Printf(ctx, "PREFIX=%s", cfg.FilenameTemplate)
	logger.Printf(ctx, "MERGE=%s", cfg.MergeMode)
	logger.Printf(ctx, "METRICS_FILE=%s", utils.EmptyFallback(cfg.MetricsFile, "(disabled)"))
	if cfg.DatabaseDSN != "" {
		logger.Printf(ctx, "DB_DSN set (length %d)", len(cfg.DatabaseDSN))
	} else {
		logger.Println(ctx, "DB_DSN not provided")
	}
	logger.Printf(ctx, "DB_HOST=%s", utils.EmptyFallback(cfg.DatabaseHost, "(not set)"))
	logger.Printf(ctx, "DB_NAME=%s", utils.EmptyFallback(cfg.DatabaseName, "(not set)"))
	if cfg.DatabasePassword != "" {
		logger.Println(ctx, "DB_PASSWORD set (redacted)")
	}
	logger.Printf(ctx, "REDIS_ADDR=%s", utils.EmptyFallback(cfg.RedisAddr, "(not set)"))
	if cfg.RedisPassword != "" {
		logger.Println(ctx, "REDIS_PASSWORD set (redacted)")
	}
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
