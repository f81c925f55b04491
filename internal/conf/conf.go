package conf

import (
	"encoding/json"
	"fmt"
	"time"
)

// Bootstrap is the root of the configuration file.
type Bootstrap struct {
	Server  *Server  `json:"server"`
	Data    *Data    `json:"data"`
	ETL     *ETL     `json:"etl"`
	Refresh *Refresh `json:"refresh"`
}

// Server holds transport settings.
type Server struct {
	Http *Server_HTTP `json:"http"`
}

// Server_HTTP configures the HTTP listener.
type Server_HTTP struct {
	Network string   `json:"network"`
	Addr    string   `json:"addr"`
	Timeout Duration `json:"timeout"`
}

// Data holds store and cache settings.
type Data struct {
	Database *Data_Database `json:"database"`
	Redis    *Data_Redis    `json:"redis"`
}

// Data_Database configures the PostgreSQL warehouse.
type Data_Database struct {
	Driver          string   `json:"driver"`
	Source          string   `json:"source"`
	MaxIdleConns    int      `json:"max_idle_conns"`
	MaxOpenConns    int      `json:"max_open_conns"`
	ConnMaxLifetime Duration `json:"conn_max_lifetime"`
	// TxTimeout bounds each rating transaction at the store level.
	TxTimeout Duration `json:"tx_timeout"`
}

// Data_Redis configures the optional cache. An empty Addr disables it.
type Data_Redis struct {
	Addr         string   `json:"addr"`
	Password     string   `json:"password"`
	DB           int      `json:"db"`
	ReadTimeout  Duration `json:"read_timeout"`
	WriteTimeout Duration `json:"write_timeout"`
	TTL          Duration `json:"ttl"`
}

// ETL configures the batch job.
type ETL struct {
	MoviesPath  string `json:"movies_path"`
	CreditsPath string `json:"credits_path"`
	CastLimit   int    `json:"cast_limit"`
	BatchSize   int    `json:"batch_size"`
}

// Refresh configures the scheduled materialized view refresh.
// An empty Schedule disables it.
type Refresh struct {
	Schedule string `json:"schedule"`
}

// Duration decodes "1.5s" style strings as well as plain nanosecond numbers.
type Duration struct {
	time.Duration
}

// AsDuration returns the wrapped value, zero when d is nil.
func (d *Duration) AsDuration() time.Duration {
	if d == nil {
		return 0
	}
	return d.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
	case string:
		if value == "" {
			d.Duration = 0
			return nil
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		d.Duration = parsed
	case nil:
		d.Duration = 0
	default:
		return fmt.Errorf("invalid duration %v", v)
	}
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}
