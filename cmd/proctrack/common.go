package main

import (
	"github.com/pkg/errors"

	"github.com/proctrack/proctrack/internal/config"
	"github.com/proctrack/proctrack/internal/database"
	"github.com/proctrack/proctrack/internal/tracker"
	"github.com/proctrack/proctrack/pkg/provider"
)

// openRepository connects to and migrates the configured database.
func openRepository(cfg *config.Config) (*database.Repository, *database.DB, error) {
	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, nil, errors.Wrap(err, "failed to initialize database")
	}

	return database.NewRepository(db), db, nil
}

// session bundles everything a polling command holds open.
type session struct {
	db      *database.DB
	repo    *database.Repository
	tracker *tracker.Service
	close   func()
}

func openSession(cfg *config.Config) (*session, error) {
	repo, db, err := openRepository(cfg)
	if err != nil {
		return nil, err
	}

	prov, err := provider.New(cfg.Tracker.Provider)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize snapshot provider")
	}

	return &session{
		db:      db,
		repo:    repo,
		tracker: tracker.NewService(cfg, repo, prov),
		close: func() {
			prov.Close()
			db.Close()
		},
	}, nil
}
