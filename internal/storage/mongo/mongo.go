package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection          = "users"
	refreshTokensCollection  = "refresh_tokens"
	securityEventsCollection = "security_events"
	defaultDBName            = "auth"
)

// Mongo — тонкий адаптер для подключения и коллекций MongoDB.
type Mongo struct {
	client         *mongodriver.Client
	db             *mongodriver.Database
	users          *mongodriver.Collection
	refreshTokens  *mongodriver.Collection
	securityEvents *mongodriver.Collection
}

// New подключается к MongoDB, проверяет соединение, подготавливает коллекции
// и обеспечивает индексацию.
func New(ctx context.Context, dbURL string) (*Mongo, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("mongo: empty db url")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(dbURL))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := cli.Database(databaseFromURI(dbURL))

	m := &Mongo{
		client:         cli,
		db:             db,
		users:          db.Collection(usersCollection),
		refreshTokens:  db.Collection(refreshTokensCollection),
		securityEvents: db.Collection(securityEventsCollection),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, err
	}

	return m, nil
}

// Close разрывает соединение с MongoDB.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// ensureIndexes создаёт индексы, необходимые сервису:
//   - уникальность username у пользователей;
//   - выборка записей реестра по user_id;
//   - TTL по expires_at (expireAfterSeconds=0 -> используется временная метка,
//     сохранённая в документе);
//   - выборка журнала событий по user_id + created_at(desc).
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	userModels := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("username_unique").SetUnique(true),
		},
	}

	if _, err := m.users.Indexes().CreateMany(ctx, userModels); err != nil {
		return fmt.Errorf("mongo ensure user indexes: %w", err)
	}

	tokenModels := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("user_id"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("ttl_expires_at").SetExpireAfterSeconds(0),
		},
	}

	if _, err := m.refreshTokens.Indexes().CreateMany(ctx, tokenModels); err != nil {
		return fmt.Errorf("mongo ensure token indexes: %w", err)
	}

	eventModels := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("user_created_desc"),
		},
	}

	if _, err := m.securityEvents.Indexes().CreateMany(ctx, eventModels); err != nil {
		return fmt.Errorf("mongo ensure event indexes: %w", err)
	}

	return nil
}

// databaseFromURI извлекает имя базы данных из URI-пути mongodb.
// Если оно отсутствует или не поддаётся расшифровке, возвращает
// значение по умолчанию.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return defaultDBName
}
