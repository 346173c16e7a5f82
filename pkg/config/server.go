package config

import "time"

// Server holds the query backend configuration (SECUDASH_ prefix).
type Server struct {
	HTTP struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"http"`
	DB struct {
		Driver  string `mapstructure:"driver"` // postgres, sqlite
		DSN     string `mapstructure:"dsn"`
		Migrate bool   `mapstructure:"migrate"`
	} `mapstructure:"db"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	CORS struct {
		Origin string `mapstructure:"origin"`
	} `mapstructure:"cors"`
	Rate struct {
		RPM   int `mapstructure:"rpm"`
		Burst int `mapstructure:"burst"`
	} `mapstructure:"rate"`
	Query struct {
		Timeout time.Duration `mapstructure:"timeout"`
		MaxRows int           `mapstructure:"maxrows"`
	} `mapstructure:"query"`
}

// DefaultServer returns the configuration used when nothing is set.
func DefaultServer() Server {
	var s Server
	s.HTTP.Addr = ":3001"
	s.DB.Driver = "sqlite"
	s.DB.DSN = "file:secudash.db?_pragma=foreign_keys(1)"
	s.DB.Migrate = true
	s.Log.Level = "INFO"
	s.Log.Format = "json"
	s.CORS.Origin = "http://localhost:5173"
	s.Rate.RPM = 600
	s.Rate.Burst = 100
	s.Query.Timeout = 10 * time.Second
	s.Query.MaxRows = 1000
	return s
}

// LoadServer reads SECUDASH_* settings on top of DefaultServer.
func LoadServer() (Server, error) {
	s := DefaultServer()
	if err := Load("SECUDASH_", &s); err != nil {
		return Server{}, err
	}
	return s, nil
}
