package mongodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

type ConnectOptions struct {
	AppName  string
	Hosts    string
	Username string
	Password string
	Database string
}

func NewConnection(ctx context.Context, opts ConnectOptions) (*DB, error) {
	hosts := strings.Split(opts.Hosts, ",")
	for i := range hosts {
		hosts[i] = strings.TrimSpace(hosts[i])
	}

	clientOptions := options.Client().
		SetAppName(opts.AppName).
		SetHosts(hosts).
		SetMaxPoolSize(4).
		SetMaxConnIdleTime(30 * time.Second).
		SetTimeout(10 * time.Second).
		SetDirect(len(hosts) == 1)

	// only set auth if password is provided
	if opts.Password != "" {
		clientOptions.SetAuth(options.Credential{
			AuthSource: "admin",
			Username:   opts.Username,
			Password:   opts.Password,
		})
	}

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &DB{
		Client:   client,
		Database: client.Database(opts.Database),
	}, nil
}

func (db *DB) Close(ctx context.Context) error {
	return db.Client.Disconnect(ctx)
}
