package main

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/geoplaces/core/internal/accounts"
	"github.com/geoplaces/core/internal/clearance"
	"github.com/geoplaces/core/internal/config"
	"github.com/geoplaces/core/internal/flows"
	"github.com/geoplaces/core/internal/gateways"
	"github.com/geoplaces/core/internal/gateways/emailnotify"
	"github.com/geoplaces/core/internal/gateways/noopgeocode"
	"github.com/geoplaces/core/internal/gateways/smtpmail"
	"github.com/geoplaces/core/internal/gateways/webhooknotify"
	"github.com/geoplaces/core/internal/index/textindex"
	"github.com/geoplaces/core/internal/logging"
	"github.com/geoplaces/core/internal/storage/sqlite"
	"github.com/geoplaces/core/internal/subscriptions"
	"github.com/geoplaces/core/internal/usecases"
)

// app bundles everything a subcommand needs, built once from cfg: the
// store, the search indexes, and the flows composed over them. Built
// fresh per invocation rather than held as global state, following
// the account/place/event flow structs' own "wire dependencies in,
// don't reach for package globals" shape.
type app struct {
	cfg    config.Config
	log    *zap.Logger
	store  *sqlite.Store
	places *flows.Places
	events *flows.Events
	rates  *flows.Ratings
	accts  *flows.Accounts
}

func newApp(cfg config.Config) (*app, error) {
	env := logging.Production
	log, err := logging.New(env)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	store, err := sqlite.Open(cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	placeIndex := textindex.NewPlaceIndex()
	eventIndex := textindex.NewEventIndex()

	notify := buildNotificationGateway(cfg)

	clearanceEngine := clearance.NewEngine(store, store, store)
	subsEngine := subscriptions.NewEngine(store, notify)

	bcryptCost := cfg.BcryptCost
	var userService *accounts.Service
	if bcryptCost > 0 {
		userService = accounts.NewServiceWithCost(store, store, bcryptCost)
	} else {
		userService = accounts.NewService(store, store)
	}

	places := &flows.Places{
		Repo:        store,
		Orgs:        store,
		Ratings:     store,
		Clearance:   clearanceEngine,
		Index:       placeIndex,
		Subs:        subsEngine,
		Notify:      notify,
		Geocoder:    noopgeocode.Gateway{},
		PopularTags: usecases.NewPopularTagsCache(cfg.PopularTags.TTL),
		Log:         log,
	}
	events := &flows.Events{
		Repo:   store,
		Index:  eventIndex,
		Notify: notify,
		Log:    log,
	}
	rates := &flows.Ratings{
		Places:   store,
		Ratings:  store,
		Comments: store,
		Index:    places,
	}
	accts := &flows.Accounts{
		Service: userService,
		Notify:  notify,
		Log:     log,
	}

	return &app{
		cfg:    cfg,
		log:    log,
		store:  store,
		places: places,
		events: events,
		rates:  rates,
		accts:  accts,
	}, nil
}

func (a *app) Close() error {
	_ = a.log.Sync()
	return a.store.Close()
}

// buildNotificationGateway wires every configured delivery channel
// (SMTP, webhook) into a Broadcast, then wraps it in a Filter so only
// the operator-allowed notification kinds are ever dispatched
// (spec.md §6).
func buildNotificationGateway(cfg config.Config) gateways.NotificationGateway {
	var channels gateways.Broadcast

	if cfg.SMTP.Addr != "" {
		var auth smtp.Auth
		if cfg.SMTP.Username != "" {
			host, _, ok := strings.Cut(cfg.SMTP.Addr, ":")
			if !ok {
				host = cfg.SMTP.Addr
			}
			auth = smtp.PlainAuth("", cfg.SMTP.Username, cfg.SMTP.Password, host)
		}
		mailGateway := smtpmail.New(cfg.SMTP.Addr, auth, cfg.SMTP.From)
		channels = append(channels, emailnotify.New(mailGateway))
	}

	if cfg.Webhook.URL != "" {
		channels = append(channels, webhooknotify.New(cfg.Webhook.URL, cfg.Webhook.MaxRetries))
	}

	allowed := make([]gateways.NotificationKind, 0, len(cfg.Notifications.Allowed))
	for _, kind := range allNotificationKinds() {
		if contains(cfg.Notifications.Allowed, kind.String()) {
			allowed = append(allowed, kind)
		}
	}

	return gateways.NewFilter(channels, allowed...)
}

func allNotificationKinds() []gateways.NotificationKind {
	return []gateways.NotificationKind{
		gateways.PlaceAdded,
		gateways.PlaceUpdated,
		gateways.EventAdded,
		gateways.EventUpdated,
		gateways.UserRegistered,
		gateways.UserResetPasswordRequested,
		gateways.ReminderCreated,
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

