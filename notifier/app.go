package notifier

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"youtube-keyword-notifier/hub"
	"youtube-keyword-notifier/mutex"
	"youtube-keyword-notifier/notify"
	"youtube-keyword-notifier/store"
	"youtube-keyword-notifier/transcript"
	"youtube-keyword-notifier/youtube"
)

const (
	DefaultSubscriptionsFile = "active_subscriptions.json"
	DefaultSeenVideosFile    = "seen_videos.json"
	DefaultListenAddress     = ":5000"
)

type Config struct {
	YoutubeAPIKey    string
	TranscriptAPIKey string
	// CallbackHost is the public host the hub pushes notifications to.
	CallbackHost      string
	ListenAddress     string
	SubscriptionsFile string
	SeenVideosFile    string
	Database          *DatabaseConfig
	RedisAddress      string
	Telegram          *TelegramConfig
	Debug             bool
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver   string
	Address  string
	User     string
	Password string
	Database string
	Path     string
}

type TelegramConfig struct {
	Token  string
	ChatId int64
}

// App holds the wired services for one process.
type App struct {
	Service *Service
	Youtube *youtube.Service
	config  Config
}

func NewApp(ctx context.Context, config Config) (*App, error) {
	if config.ListenAddress == "" {
		config.ListenAddress = DefaultListenAddress
	}
	if config.SubscriptionsFile == "" {
		config.SubscriptionsFile = DefaultSubscriptionsFile
	}
	if config.SeenVideosFile == "" {
		config.SeenVideosFile = DefaultSeenVideosFile
	}
	ytService, err := youtube.NewService(config.YoutubeAPIKey)
	if err != nil {
		return nil, err
	}
	subs, seen, err := buildStores(ctx, config)
	if err != nil {
		return nil, err
	}
	var mb mutex.Builder
	if config.RedisAddress != "" {
		mb = mutex.NewRedisBuilder(config.RedisAddress)
	} else {
		mb = mutex.NewLocalBuilder()
	}
	var notifier notify.Notifier = notify.LogNotifier{}
	if config.Telegram != nil {
		notifier, err = notify.NewTelegramNotifier(config.Telegram.Token, config.Telegram.ChatId)
		if err != nil {
			return nil, err
		}
	}
	callback := fmt.Sprintf(youtube.WebhookPathURLFormat, config.CallbackHost)
	service := NewService(
		ytService,
		hub.NewClient(),
		subs,
		seen,
		transcript.NewService(config.TranscriptAPIKey),
		mb,
		notifier,
		callback,
	)
	return &App{Service: service, Youtube: ytService, config: config}, nil
}

func buildStores(ctx context.Context, config Config) (store.Subscriptions, store.SeenVideos, error) {
	if config.Database == nil {
		return store.NewFileSubscriptions(config.SubscriptionsFile),
			store.NewFileSeenVideos(config.SeenVideosFile),
			nil
	}
	var sqlStore *store.SQL
	var err error
	switch config.Database.Driver {
	case "postgres":
		sqlStore = store.NewPostgres(
			config.Database.Address,
			config.Database.User,
			config.Database.Password,
			config.Database.Database,
		)
	case "sqlite":
		sqlStore, err = store.NewSQLite(config.Database.Path)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, errors.Errorf("unknown database driver: %v", config.Database.Driver)
	}
	if config.Debug {
		sqlStore.EnableDebug()
	}
	err = sqlStore.Init(ctx)
	if err != nil {
		return nil, nil, err
	}
	return sqlStore, sqlStore, nil
}

// Serve runs the webhook endpoint plus the lease renewal sweep; with a
// keyword it also runs the polling fallback. Blocks until the server fails
// or ctx is cancelled.
func (a *App) Serve(ctx context.Context, keyword string) error {
	router := mux.NewRouter()
	router.Methods(http.MethodGet).Path("/youtube-webhook").HandlerFunc(a.Service.HandleVerification)
	router.Methods(http.MethodPost).Path("/youtube-webhook").HandlerFunc(a.Service.HandleFeed)

	go a.Service.RunLeaseRenewal(ctx)
	if keyword != "" {
		go a.Service.PollKeyword(ctx, a.Youtube, keyword)
		log.Printf("polling for keyword %q", keyword)
	}

	server := &http.Server{Addr: a.config.ListenAddress, Handler: router}
	go func() {
		<-ctx.Done()
		err := server.Close()
		if err != nil {
			log.Println(err.Error())
		}
	}()
	log.Printf("webhook server listening on %v", a.config.ListenAddress)
	err := server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
