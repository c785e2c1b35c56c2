package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/BartekS5/contentmigrate/internal/config"
	"github.com/BartekS5/contentmigrate/internal/etl"
	"github.com/BartekS5/contentmigrate/internal/flexform"
	"github.com/BartekS5/contentmigrate/internal/journal"
	"github.com/BartekS5/contentmigrate/internal/report"
	"github.com/BartekS5/contentmigrate/internal/richtext"
	"github.com/BartekS5/contentmigrate/internal/store/sqlstore"
	"github.com/BartekS5/contentmigrate/pkg/database"
	"github.com/BartekS5/contentmigrate/pkg/logger"
)

var errRunFailed = errors.New("migration run finished with failures")

func runMigrate(ctx context.Context, w io.Writer, opts *MigrateOptions) error {
	cfg := config.LoadConfig()
	if opts.Verbose {
		cfg.LogLevel = logger.DEBUG
		if err := setupLogging(cfg); err != nil {
			return err
		}
	}

	defs, err := config.LoadDefinitions(opts.Definitions...)
	if err != nil {
		if len(defs) == 0 {
			return err
		}
		logger.Warnf("Some definitions were skipped: %v", err)
	}
	migrations := make([]etl.Migration, 0, len(defs))
	for _, d := range defs {
		migrations = append(migrations, etl.Static(d))
	}

	out := report.NewConsole(w)
	out.Title("Content migration")

	if !opts.Run || len(migrations) == 0 {
		etl.NewRunner(etl.Services{Out: out}).List(migrations)
		return nil
	}

	if err := cfg.RequireSQL(); err != nil {
		return err
	}
	db, err := database.ConnectSQL(cfg.SQLConnString)
	if err != nil {
		return err
	}
	defer db.Close()

	codec := flexform.NewCodec()
	store := sqlstore.New(db, codec)
	svc := etl.Services{
		Rows:      store,
		Files:     store,
		Persister: store,
		Flex:      codec,
		Schema:    store,
		RichText:  richtext.DefaultProfiles(),
		Out:       out,
	}

	if cfg.JournalEnabled() {
		client, err := database.ConnectMongo(cfg.MongoConnString)
		if err != nil {
			logger.Warnf("Journal disabled: %v", err)
		} else {
			defer client.Disconnect(context.Background())
			svc.Journal = journal.NewMongoJournal(client, cfg.JournalDatabase)
		}
	}

	sum := etl.NewRunner(svc).Run(ctx, migrations, opts.Only)
	if sum.Failed > 0 || sum.Invalid > 0 {
		return fmt.Errorf("%w: %d failed rows, %d invalid migrations", errRunFailed, sum.Failed, sum.Invalid)
	}
	return nil
}

func showJournal(ctx context.Context, w io.Writer, opts *JournalOptions) error {
	cfg := config.LoadConfig()
	if !cfg.JournalEnabled() {
		return errors.New("MONGO_CONNECTION_STRING environment variable not set")
	}
	client, err := database.ConnectMongo(cfg.MongoConnString)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	outcomes, err := journal.NewMongoJournal(client, cfg.JournalDatabase).Recent(ctx, journal.Query{
		Migration:  opts.Migration,
		FailedOnly: opts.FailedOnly,
		Limit:      opts.Limit,
	})
	if err != nil {
		return err
	}

	out := report.NewConsole(w)
	if len(outcomes) == 0 {
		out.Note("No outcomes recorded.")
		return nil
	}
	for _, o := range outcomes {
		out.Writeln(o.At.Format("2006-01-02 15:04:05") + " " + o.Migration + " " + o.Line())
	}
	return nil
}
