// path: database/database.go
package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/learnercloudtech/Karunya-Kripa/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	colReports    = "reports"
	colVolunteers = "volunteers"
)

// Mongo is the MongoDB-backed Store.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// Connect dials MongoDB using the mode precedence of cfg and prepares the
// indexes the listing queries rely on.
func Connect(ctx context.Context, cfg config.MongoConfig, logger *zap.Logger) (*Mongo, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("mongo")

	rc, reason := resolveConfig(cfg)
	if cfg.Debug {
		logger.Debug("env snapshot", zap.String("config", snapshot(cfg)))
	}

	start := time.Now()
	logger.Info("connecting",
		zap.String("mode", rc.Mode),
		zap.String("uri", redactURI(rc.URI)),
		zap.String("db", rc.DBName),
		zap.String("reason", reason))

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	dctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c, err := mongo.Connect(dctx, options.Client().ApplyURI(rc.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err = c.Ping(dctx, nil); err != nil {
		_ = c.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	m := &Mongo{client: c, db: c.Database(rc.DBName), logger: logger}
	if err := m.createIndexes(ctx); err != nil {
		logger.Warn("index creation warnings", zap.Error(err))
	}

	logger.Info("connected", zap.Duration("took", time.Since(start).Round(time.Millisecond)))
	return m, nil
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *Mongo) col(name string) *mongo.Collection { return m.db.Collection(name) }

// --- internal ---

type resolved struct {
	Mode   string
	URI    string
	DBName string
}

// resolveConfig picks the URI and returns a human-readable reason.
// auto: remote > explicit > local.
func resolveConfig(cfg config.MongoConfig) (resolved, string) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	dbname := chooseFirstNonEmpty(cfg.Database, "karunya_kripa")

	explicit := strings.TrimSpace(cfg.URI)
	local := chooseFirstNonEmpty(cfg.URILocal, "mongodb://localhost:27017")
	remote := strings.TrimSpace(cfg.URIRemote)

	switch mode {
	case "local":
		return resolved{Mode: "local", URI: chooseFirstNonEmpty(explicit, local), DBName: dbname},
			reasonLocal(explicit)
	case "remote":
		if remote != "" {
			return resolved{Mode: "remote", URI: remote, DBName: dbname}, "mode=remote, using remote URI"
		}
		return resolved{Mode: "local", URI: chooseFirstNonEmpty(explicit, local), DBName: dbname},
			"remote URI missing, fallback to explicit/local"
	default:
		if remote != "" {
			return resolved{Mode: "remote", URI: remote, DBName: dbname}, "auto: remote URI present"
		}
		if explicit != "" {
			return resolved{Mode: "auto", URI: explicit, DBName: dbname}, "auto: MONGO_URI present"
		}
		return resolved{Mode: "local", URI: local, DBName: dbname}, "auto: fallback to local"
	}
}

func (m *Mongo) createIndexes(ctx context.Context) error {
	ctxIdx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexes := []struct {
		col  string
		name string
		keys bson.D
	}{
		{colReports, "submitted_at", bson.D{{Key: "submitted_at", Value: -1}}},
		{colReports, "type", bson.D{{Key: "type", Value: 1}}},
		{colReports, "status", bson.D{{Key: "status", Value: 1}}},
		{colReports, "coordinates", bson.D{{Key: "coordinates.latitude", Value: 1}, {Key: "coordinates.longitude", Value: 1}}},
		{colVolunteers, "registered_at", bson.D{{Key: "registered_at", Value: -1}}},
	}

	var errs []string
	for _, ix := range indexes {
		if _, err := m.col(ix.col).Indexes().CreateOne(ctxIdx, mongo.IndexModel{Keys: ix.keys}); err != nil {
			errs = append(errs, ix.col+"."+ix.name+": "+err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// --- utils ---

func redactURI(raw string) string {
	if raw == "" || !strings.Contains(raw, "://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = url.UserPassword("****", "****")
	return u.String()
}

func chooseFirstNonEmpty(v1, v2 string) string {
	if strings.TrimSpace(v1) != "" {
		return strings.TrimSpace(v1)
	}
	return v2
}

func reasonLocal(explicit string) string {
	if explicit != "" {
		return "mode=local with explicit MONGO_URI"
	}
	return "mode=local using local URI/default"
}

// snapshot shows the precedence inputs without leaking credentials.
func snapshot(cfg config.MongoConfig) string {
	fields := []string{
		"MONGO_MODE=" + cfg.Mode,
		"MONGO_DB=" + cfg.Database,
		"MONGO_URI=" + redactURI(cfg.URI),
		"MONGO_URI_LOCAL=" + redactURI(cfg.URILocal),
		"MONGO_URI_REMOTE=" + redactURI(cfg.URIRemote),
	}
	return strings.Join(fields, " ")
}
