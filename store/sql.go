package store

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

const defaultTimeout = time.Minute

type SubscriptionRow struct {
	bun.BaseModel `bun:"table:subscriptions"`

	ChannelId      string `bun:",pk"`
	Keyword        string
	CallbackURL    string
	LeaseExpiresAt *time.Time
}

type SeenVideoRow struct {
	bun.BaseModel `bun:"table:seen_videos"`

	Id string `bun:",pk"`
}

// SQL implements both store contracts on a relational database. Unlike the
// file backend every read hits the database, so the fresh-read rule holds
// without rereading anything by hand.
type SQL struct {
	db      *bun.DB
	timeout time.Duration
}

func NewPostgres(address, user, password, database string) *SQL {
	connector := pgdriver.NewConnector(
		pgdriver.WithInsecure(true),
		pgdriver.WithAddr(address),
		pgdriver.WithUser(user),
		pgdriver.WithPassword(password),
		pgdriver.WithDatabase(database),
	)
	sqldb := sql.OpenDB(connector)
	db := bun.NewDB(sqldb, pgdialect.New())
	return &SQL{db: db, timeout: defaultTimeout}
}

func NewSQLite(path string) (*SQL, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open sqlite database")
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	return &SQL{db: db, timeout: defaultTimeout}, nil
}

func (s *SQL) SetTimeout(duration time.Duration) {
	s.timeout = duration
}

func (s *SQL) EnableDebug() {
	s.db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
}

// Init creates the tables when they are missing.
func (s *SQL) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*SubscriptionRow)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "error during creating subscriptions table")
	}
	_, err = s.db.NewCreateTable().Model((*SeenVideoRow)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "error during creating seen videos table")
	}
	return nil
}

func (s *SQL) Load() (map[string]Subscription, error) {
	var rows []SubscriptionRow
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	err := s.db.NewSelect().Model(&rows).Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "error during querying subscriptions")
	}
	subs := make(map[string]Subscription, len(rows))
	for _, row := range rows {
		subs[row.ChannelId] = Subscription{
			Keyword:        row.Keyword,
			CallbackURL:    row.CallbackURL,
			LeaseExpiresAt: row.LeaseExpiresAt,
		}
	}
	return subs, nil
}

func (s *SQL) Save(subs map[string]Subscription) error {
	for channelId, sub := range subs {
		err := s.Put(channelId, sub)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQL) Put(channelId string, sub Subscription) error {
	row := SubscriptionRow{
		ChannelId:      channelId,
		Keyword:        sub.Keyword,
		CallbackURL:    sub.CallbackURL,
		LeaseExpiresAt: sub.LeaseExpiresAt,
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_, err := s.db.NewInsert().
		Model(&row).
		On("CONFLICT (channel_id) DO UPDATE").
		Set("keyword = EXCLUDED.keyword").
		Set("callback_url = EXCLUDED.callback_url").
		Set("lease_expires_at = EXCLUDED.lease_expires_at").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "error during adding subscription")
	}
	return nil
}

func (s *SQL) Remove(channelId string) error {
	row := SubscriptionRow{ChannelId: channelId}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_, err := s.db.NewDelete().Model(&row).WherePK().Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "error during removing subscription")
	}
	return nil
}

func (s *SQL) Lookup(channelId string) (Subscription, error) {
	row := SubscriptionRow{ChannelId: channelId}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	err := s.db.NewSelect().Model(&row).WherePK().Scan(ctx)
	if err != nil && (errors.Is(err, sql.ErrNoRows) || errors.Is(err, pg.ErrNoRows)) {
		return Subscription{}, ErrNotFound
	}
	if err != nil {
		return Subscription{}, errors.Wrap(err, "error during querying subscription")
	}
	return Subscription{
		Keyword:        row.Keyword,
		CallbackURL:    row.CallbackURL,
		LeaseExpiresAt: row.LeaseExpiresAt,
	}, nil
}

func (s *SQL) RecordLease(channelId string, expiresAt time.Time) error {
	row := SubscriptionRow{ChannelId: channelId, LeaseExpiresAt: &expiresAt}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	result, err := s.db.NewUpdate().
		Model(&row).
		Set("lease_expires_at = ?lease_expires_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "error during saving lease expiry")
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQL) LeaseExpiring(deadline time.Time) (map[string]Subscription, error) {
	var rows []SubscriptionRow
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	err := s.db.NewSelect().
		Model(&rows).
		Where("lease_expires_at IS NULL OR lease_expires_at < ?", deadline).
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "error during querying expiring subscriptions")
	}
	expiring := make(map[string]Subscription, len(rows))
	for _, row := range rows {
		expiring[row.ChannelId] = Subscription{
			Keyword:        row.Keyword,
			CallbackURL:    row.CallbackURL,
			LeaseExpiresAt: row.LeaseExpiresAt,
		}
	}
	return expiring, nil
}

func (s *SQL) Contains(videoId string) bool {
	row := SeenVideoRow{Id: videoId}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	exists, err := s.db.NewSelect().Model(&row).WherePK().Exists(ctx)
	if err != nil {
		log.Printf("unable to check if video %v was seen: %v", videoId, err.Error())
		return false
	}
	return exists
}

func (s *SQL) Add(videoId string) {
	row := SeenVideoRow{Id: videoId}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_, err := s.db.NewInsert().
		Model(&row).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		log.Printf("unable to mark video %v as seen: %v", videoId, err.Error())
	}
}
