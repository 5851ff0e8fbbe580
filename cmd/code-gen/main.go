package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"device-license.backend/internal/config"
	"device-license.backend/internal/domain/entities"
	"device-license.backend/internal/infrastructure/database"
	"device-license.backend/internal/infrastructure/metrics"
	"device-license.backend/internal/infrastructure/repositories"
	"device-license.backend/internal/usecases"
)

var openCodeGenDB = database.Open

var openCodeGenSQLDB = func(db *gorm.DB) (io.Closer, error) {
	return db.DB()
}

type codeIssuer interface {
	Create(ctx context.Context, input *entities.CreateAuthorizationCodeInput) (*entities.AuthorizationCode, error)
}

type codeGenDeps struct {
	loadEnv func() error
	loadCfg func() *config.Config
	prepare func(cfg *config.Config) (codeIssuer, io.Closer, error)
	out     io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func defaultCodeGenDeps() codeGenDeps {
	return codeGenDeps{
		loadEnv: func() error { return godotenv.Load() },
		loadCfg: config.Load,
		prepare: func(cfg *config.Config) (codeIssuer, io.Closer, error) {
			db, err := openCodeGenDB(cfg.Database)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to connect db: %w", err)
			}
			sqlDB, err := openCodeGenSQLDB(db)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to init sql db: %w", err)
			}
			if err := database.Migrate(db); err != nil {
				_ = sqlDB.Close()
				return nil, nil, fmt.Errorf("failed to migrate db: %w", err)
			}

			codes := usecases.NewAuthorizationCodeUsecase(
				repositories.NewAuthorizationCodeRepository(db),
				usecases.SystemClock,
				metrics.New(),
				cfg.Authorization.CodeGenerationAttempts,
			)
			return codes, sqlDB, nil
		},
		out: os.Stdout,
	}
}

// parseBound accepts RFC3339 or a bare date; a bare end date covers the whole day
func parseBound(value string, endOfDay bool) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q: want RFC3339 or YYYY-MM-DD", value)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return &t, nil
}

func runCodeGen(args []string, deps codeGenDeps) error {
	def := defaultCodeGenDeps()
	if deps.loadEnv == nil {
		deps.loadEnv = def.loadEnv
	}
	if deps.loadCfg == nil {
		deps.loadCfg = def.loadCfg
	}
	if deps.prepare == nil {
		deps.prepare = def.prepare
	}
	if deps.out == nil {
		deps.out = def.out
	}

	fs := flag.NewFlagSet("code-gen", flag.ContinueOnError)
	nameFlag := fs.String("name", "", "code display name (required)")
	codeFlag := fs.String("code", "", "code value (generated when empty)")
	notesFlag := fs.String("notes", "", "notes copied to devices granted under the code")
	startFlag := fs.String("start", "", "validity start, RFC3339 or YYYY-MM-DD")
	endFlag := fs.String("end", "", "validity end, RFC3339 or YYYY-MM-DD (inclusive)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*nameFlag) == "" {
		return fmt.Errorf("--name is required")
	}

	start, err := parseBound(*startFlag, false)
	if err != nil {
		return err
	}
	end, err := parseBound(*endFlag, true)
	if err != nil {
		return err
	}

	input := &entities.CreateAuthorizationCodeInput{
		Name:      *nameFlag,
		Code:      *codeFlag,
		StartTime: start,
		EndTime:   end,
	}
	if *notesFlag != "" {
		input.Notes = notesFlag
	}

	if err := deps.loadEnv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	issuer, closer, err := deps.prepare(deps.loadCfg())
	if err != nil {
		return err
	}
	if closer == nil {
		closer = nopCloser{}
	}
	defer closer.Close()

	code, err := issuer.Create(context.Background(), input)
	if err != nil {
		return fmt.Errorf("failed creating authorization code: %w", err)
	}

	_, _ = fmt.Fprintln(deps.out, "Created authorization code")
	_, _ = fmt.Fprintf(deps.out, "id=%s\n", code.ID)
	_, _ = fmt.Fprintf(deps.out, "name=%s\n", code.Name)
	_, _ = fmt.Fprintf(deps.out, "AUTHORIZATION_CODE=%s\n", code.Code)
	return nil
}

func main() {
	if err := runCodeGen(os.Args[1:], defaultCodeGenDeps()); err != nil {
		log.Fatal(err)
	}
}
