package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const defaultSecretKey = "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy"

type (
	Config struct {
		Env          string `mapstructure:"env"`
		Build        string `mapstructure:"build"`
		AppName      string `mapstructure:"appName"`
		Debug        bool   `mapstructure:"debug"`
		TestMode     bool   `mapstructure:"testMode"`
		SecretKey    string `mapstructure:"secretKey"`
		RollbarToken string `mapstructure:"rollbarToken"`

		Server   ServerConfig   `mapstructure:"server"`
		Database DatabaseConfig `mapstructure:"database"`
		Admin    AdminConfig    `mapstructure:"admin"`
		Chat     ChatConfig     `mapstructure:"chat"`
		Redis    RedisConfig    `mapstructure:"redis"`
	}

	ServerConfig struct {
		Host            string        `mapstructure:"host"`
		Address         string        `mapstructure:"address"`
		DebugAddress    string        `mapstructure:"debugAddress"`
		ReadTimeout     time.Duration `mapstructure:"readTimeout"`
		WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
		SessionTTL      time.Duration `mapstructure:"sessionTTL"`
		StaticDir       string        `mapstructure:"staticDir"`
		DevServerURL    string        `mapstructure:"devServerURL"`
		BodyLimit       string        `mapstructure:"bodyLimit"`
		DisableReqLogs  bool          `mapstructure:"disableReqLogs"`
	}

	DatabaseConfig struct {
		Engine     string `mapstructure:"engine"` // sqlite3 | postgres
		Path       string `mapstructure:"path"`   // sqlite3 only
		Host       string `mapstructure:"host"`
		Port       string `mapstructure:"port"`
		User       string `mapstructure:"user"`
		Password   string `mapstructure:"password"`
		Name       string `mapstructure:"name"`
		DisableTLS bool   `mapstructure:"disableTLS"`
	}

	AdminConfig struct {
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
	}

	ChatConfig struct {
		APIKey    string        `mapstructure:"apiKey"`
		Model     string        `mapstructure:"model"`
		BaseURL   string        `mapstructure:"baseURL"`
		Timeout   time.Duration `mapstructure:"timeout"`
		RateLimit int           `mapstructure:"rateLimit"` // requests per minute per client
	}

	RedisConfig struct {
		URL string `mapstructure:"url"`
	}
)

func (dc DatabaseConfig) Address() string {
	if dc.Port == "" {
		return dc.Host
	}
	return dc.Host + ":" + dc.Port
}

func (dc DatabaseConfig) IsPostgres() bool {
	return dc.Engine == "postgres"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "E.R.I.S.E.")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("secretKey", defaultSecretKey)
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":3000")
	v.SetDefault("server.debugAddress", ":4000")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 60*time.Second)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.sessionTTL", 24*time.Hour)
	v.SetDefault("server.staticDir", "dist")
	v.SetDefault("server.devServerURL", "")
	v.SetDefault("server.bodyLimit", "1M")
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", "sqlite3")
	v.SetDefault("database.path", "database.sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "erise")
	v.SetDefault("database.disableTLS", false)

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password", "")

	v.SetDefault("chat.apiKey", "")
	v.SetDefault("chat.model", "gemini-3-flash-preview")
	v.SetDefault("chat.baseURL", "")
	v.SetDefault("chat.timeout", 30*time.Second)
	v.SetDefault("chat.rateLimit", 20)

	v.SetDefault("redis.url", "")
}

// NewConfig loads the configuration for the environment named by $ENV (DEV by default).
// Values come from defaults, then config/.env.<env> (if it exists), then <ENV>_* variables.
func NewConfig() *Config {
	conf, err := LoadConfig(os.Getenv("ENV"), os.Getenv("CONFIG_DIR"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return conf
}

func LoadConfig(env, dir string) (*Config, error) {
	env = strings.ToUpper(CleanString(env))
	if env == "" {
		env = "DEV"
	}
	if dir == "" {
		dir = "config"
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)
	v.SetDefault("env", env)
	switch env {
	case "TEST":
		v.SetDefault("testMode", true)
		v.SetDefault("debug", false)
	case "PROD":
		v.SetDefault("debug", false)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(dir, ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// conventional name used by the Gemini tooling
	_ = v.BindEnv("chat.apiKey", env+"_CHAT_APIKEY", "GEMINI_API_KEY")

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := conf.check(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) check() error {
	if c.Env == "PROD" && c.SecretKey == defaultSecretKey {
		return errors.New("PROD_SECRETKEY must be set in production")
	}
	switch c.Database.Engine {
	case "sqlite3", "postgres":
	default:
		return errors.Errorf("unsupported database engine %q", c.Database.Engine)
	}
	return nil
}
