package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"wcprobe/internal/probe"

	_ "embed"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

func wrapOpenDB(err error) error {
	return fmt.Errorf("open db: %w", err)
}

// Open opens the sqlite database at `path`, creating it and its tables if needed.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, wrapOpenDB(fmt.Errorf("a path was not specified"))
	}
	if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0777)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapOpenDB(err)
	}
	// sqlite only supports a single writer
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, wrapOpenDB(err)
	}
	_, err = db.Exec(Schema)
	if err != nil {
		db.Close()
		return nil, wrapOpenDB(fmt.Errorf("apply schema: %w", err))
	}

	return db, nil
}

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Probe is a stored probe outcome.
type Probe struct {
	ID              int64
	Target          string
	ProbedAt        time.Time
	BadSite         bool
	Captcha         bool
	ProductIDs      []string
	CheckoutReached bool
	PaymentMethods  []string
}

// FromResult converts the outcome of a probe into a row. Errors other than a bad site
// are not worth keeping and yield false.
func FromResult(target string, at time.Time, result probe.Result, err error) (Probe, bool) {
	if err != nil {
		if !errors.Is(err, probe.ErrBadSite) {
			return Probe{}, false
		}
		return Probe{Target: target, ProbedAt: at, BadSite: true}, true
	}
	return Probe{
		Target:          target,
		ProbedAt:        at,
		Captcha:         result.Captcha,
		ProductIDs:      result.ProductIDs,
		CheckoutReached: result.CheckoutReached,
		PaymentMethods:  result.PaymentMethods,
	}, true
}

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	out, err := json.Marshal(list)
	return string(out), err
}

const insertProbe = `insert into probe(
	target, probed_at, bad_site, captcha, product_ids, checkout_reached, payment_methods
) values (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertProbe(ctx context.Context, p Probe) (int64, error) {
	productIds, err := encodeList(p.ProductIDs)
	if err != nil {
		return 0, err
	}
	paymentMethods, err := encodeList(p.PaymentMethods)
	if err != nil {
		return 0, err
	}

	res, err := q.db.ExecContext(
		ctx, insertProbe,
		p.Target, p.ProbedAt.UnixMilli(), p.BadSite, p.Captcha,
		productIds, p.CheckoutReached, paymentMethods,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const probeColumns = `id, target, probed_at, bad_site, captcha, product_ids, checkout_reached, payment_methods`

type scanner interface {
	Scan(dest ...any) error
}

func scanProbe(row scanner) (Probe, error) {
	var p Probe
	var probedAt int64
	var productIds, paymentMethods string
	err := row.Scan(
		&p.ID, &p.Target, &probedAt, &p.BadSite, &p.Captcha,
		&productIds, &p.CheckoutReached, &paymentMethods,
	)
	if err != nil {
		return Probe{}, err
	}
	p.ProbedAt = time.UnixMilli(probedAt)
	err = json.Unmarshal([]byte(productIds), &p.ProductIDs)
	if err != nil {
		return Probe{}, fmt.Errorf("decode product ids: %w", err)
	}
	err = json.Unmarshal([]byte(paymentMethods), &p.PaymentMethods)
	if err != nil {
		return Probe{}, fmt.Errorf("decode payment methods: %w", err)
	}
	return p, nil
}

const listProbes = `select ` + probeColumns + ` from probe order by probed_at desc, id desc limit ?`

// ListProbes returns the most recent probes first.
func (q *Queries) ListProbes(ctx context.Context, limit int) ([]Probe, error) {
	rows, err := q.db.QueryContext(ctx, listProbes, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Probe
	for rows.Next() {
		p, err := scanProbe(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const latestForTarget = `select ` + probeColumns + ` from probe where target = ? order by probed_at desc, id desc limit 1`

// LatestForTarget returns sql.ErrNoRows when the target was never probed.
func (q *Queries) LatestForTarget(ctx context.Context, target string) (Probe, error) {
	return scanProbe(q.db.QueryRowContext(ctx, latestForTarget, target))
}
