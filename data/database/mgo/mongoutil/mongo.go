package mongoutil

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Config represents the MongoDB connection settings.
type Config struct {
	Uri         string
	Database    string
	Username    string
	Password    string
	AuthSource  string
	MaxPoolSize int
}

func (c *Config) validate() error {
	if c.Uri == "" {
		return errors.New("mongo uri is required")
	}
	if c.Database == "" {
		return errors.New("mongo database is required")
	}
	if c.MaxPoolSize <= 0 {
		c.MaxPoolSize = 20
	}
	return nil
}

type Client struct {
	cli *mongo.Client
	db  *mongo.Database
}

func (c *Client) GetDB() *mongo.Database { return c.db }

func (c *Client) Close(ctx context.Context) error {
	return c.cli.Disconnect(ctx)
}

// NewMongoDB connects and pings; failure here is fatal for the process, so
// no background retry loop (the driver reconnects on its own afterwards).
func NewMongoDB(ctx context.Context, config *Config) (*Client, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	opts := options.Client().ApplyURI(config.Uri)
	opts.SetMaxPoolSize(uint64(config.MaxPoolSize))
	if config.Username != "" {
		opts.SetAuth(options.Credential{
			Username:   config.Username,
			Password:   config.Password,
			AuthSource: config.AuthSource,
		})
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cli, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "mongo connect")
	}
	if err := cli.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(ctx)
		return nil, errors.Wrap(err, "mongo ping")
	}
	return &Client{cli: cli, db: cli.Database(config.Database)}, nil
}
