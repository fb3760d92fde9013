package global

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig is the full gateway configuration, populated from the
// environment. A .env file in the working directory is loaded first when
// present.
type AppConfig struct {
	GatewayID string `envconfig:"GATEWAY_ID" default:"gw-1"`
	NodeID    int64  `envconfig:"NODE_ID" default:"1"`
	Port      int    `envconfig:"PORT" default:"8000"`

	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DB" default:"roomiechat"`
	MongoPoolSize int    `envconfig:"MONGO_POOL_SIZE" default:"20"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Empty list disables the cross-gateway relay.
	NatsServers []string `envconfig:"NATS_SERVERS"`

	JWTSecret string `envconfig:"JWT_SECRET" default:"dev-secret-change-me"`

	SendQueueSize int           `envconfig:"SEND_QUEUE_SIZE" default:"256"`
	WriteTimeout  time.Duration `envconfig:"WRITE_TIMEOUT" default:"5s"`
	PongTimeout   time.Duration `envconfig:"PONG_TIMEOUT" default:"75s"`
	PingInterval  time.Duration `envconfig:"PING_INTERVAL" default:"25s"`
	PresenceTTL   time.Duration `envconfig:"PRESENCE_TTL" default:"120s"`

	FanoutWorkers int `envconfig:"FANOUT_WORKERS" default:"4"`
	FanoutQueue   int `envconfig:"FANOUT_QUEUE" default:"1024"`

	DefaultPageSize int `envconfig:"DEFAULT_PAGE_SIZE" default:"50"`
}

var Conf AppConfig

// Load reads the environment into Conf.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()
	if err := envconfig.Process("", &Conf); err != nil {
		return nil, err
	}
	return &Conf, nil
}

func JwtSecret() []byte { return []byte(Conf.JWTSecret) }
