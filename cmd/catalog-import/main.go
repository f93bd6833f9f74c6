// Command catalog-import bulk-loads products for one account from gzipped
// JSON-lines files. Codes that appear in more than one input file are
// reported and skipped, as are codes the account already uses.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/tiendita-pos/internal/domain/auth"
	"github.com/xenking/tiendita-pos/internal/domain/product"
	"github.com/xenking/tiendita-pos/internal/storage/postgres"
)

type options struct {
	databaseURL string
	email       string
	capacity    uint
	fpr         float64
	dryRun      bool
	files       []string
}

// stats summarizes one import run.
type stats struct {
	created   int
	duplicate int
	existing  int
	invalid   int
}

func main() {
	var opts options
	flag.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&opts.email, "email", "", "email of the account that owns the products")
	flag.UintVar(&opts.capacity, "bloom-capacity", 1_000_000, "expected number of codes per file")
	flag.Float64Var(&opts.fpr, "bloom-fpr", 0.001, "bloom filter false positive rate")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "report what would be imported without writing")
	flag.Parse()
	opts.files = flag.Args()

	if opts.databaseURL == "" {
		opts.databaseURL = os.Getenv("DATABASE_URL")
	}
	if opts.databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if opts.email == "" || len(opts.files) == 0 {
		slog.Error("usage: catalog-import --email owner@example.com file1.jsonl.gz [file2.jsonl.gz ...]")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("catalog import completed successfully")
}

func run(ctx context.Context, opts options) error {
	for _, f := range opts.files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("detecting codes repeated across files", slog.Int("files", len(opts.files)))
	dups, err := findDuplicateCodes(ctx, opts.files, opts.capacity, opts.fpr)
	if err != nil {
		return errors.Wrap(err, "find duplicate codes")
	}
	if len(dups) > 0 {
		slog.Warn("codes present in several files are skipped", slog.Int("count", len(dups)))
	}

	pool, err := postgres.NewPool(ctx, opts.databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	user, err := postgres.NewUserRepository(pool).FindUserByEmail(ctx, strings.ToLower(opts.email))
	if err != nil {
		return errors.Wrapf(err, "find account %s", opts.email)
	}
	ctx = auth.WithUserID(ctx, user.ID)

	s, err := importFiles(ctx, postgres.NewProductRepository(pool), opts.files, dups, opts.dryRun)
	if err != nil {
		return err
	}
	slog.Info("import summary",
		slog.String("account", user.Email),
		slog.Int("created", s.created),
		slog.Int("duplicate", s.duplicate),
		slog.Int("existing", s.existing),
		slog.Int("invalid", s.invalid),
		slog.Bool("dry_run", opts.dryRun),
	)
	return nil
}

// importFiles creates every record whose code is neither repeated across
// files nor already in the catalog of the account in ctx.
func importFiles(ctx context.Context, repo product.Repository, files []string, dups map[string]struct{}, dryRun bool) (stats, error) {
	current, err := repo.List(ctx)
	if err != nil {
		return stats{}, errors.Wrap(err, "list existing products")
	}
	existing := make(map[string]struct{}, len(current))
	for _, p := range current {
		existing[p.Code] = struct{}{}
	}

	var s stats
	for _, path := range files {
		bad := func(lineNo int, err error) {
			s.invalid++
			slog.Warn("skipping line", slog.String("file", path), slog.Int("line", lineNo), slog.String("error", err.Error()))
		}
		err := streamRecords(ctx, path, func(r record) error {
			if _, ok := dups[r.Code]; ok {
				s.duplicate++
				return nil
			}
			if _, ok := existing[r.Code]; ok {
				s.existing++
				return nil
			}
			p := product.Product{
				Code:     r.Code,
				Name:     r.Name,
				Category: product.Category(r.Category),
				Price:    r.Price,
				Stock:    r.Stock,
			}
			if err := p.Validate(); err != nil {
				s.invalid++
				slog.Warn("skipping product", slog.String("code", r.Code), slog.String("error", err.Error()))
				return nil
			}
			existing[r.Code] = struct{}{}
			if dryRun {
				s.created++
				return nil
			}
			if _, err := repo.Create(ctx, p); err != nil {
				if errors.Is(err, product.ErrInvalid) {
					s.existing++
					return nil
				}
				return errors.Wrapf(err, "create product %s", r.Code)
			}
			s.created++
			return nil
		}, bad)
		if err != nil {
			return s, errors.Wrapf(err, "import %s", path)
		}
		slog.Info("file imported", slog.String("file", path), slog.Int("created_total", s.created))
	}
	return s, nil
}
