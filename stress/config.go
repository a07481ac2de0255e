package stress

import (
	"github.com/astaxie/beego/config"
	"github.com/pkg/errors"
)

// Config is the [stress] section of the INI configuration.
type Config struct {
	Threads     int
	Iterations  int
	Concurrency int
	Scenario    string // JSON scenario path, empty for DefaultScenario
}

func NewConfig() *Config {
	return &Config{
		Threads:    DefaultThreads,
		Iterations: DefaultIterations,
	}
}

// LoadConfig reads the [stress] section from an INI file.
func LoadConfig(fileName string) (*Config, error) {
	c, err := config.NewConfig("ini", fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "load config %s", fileName)
	}
	return ParseConfig(c)
}

// ParseConfig builds a Config from an already loaded configer.
func ParseConfig(c config.Configer) (*Config, error) {
	conf := NewConfig()
	conf.Threads = c.DefaultInt("stress::threads", conf.Threads)
	conf.Iterations = c.DefaultInt("stress::iterations", conf.Iterations)
	conf.Concurrency = c.DefaultInt("stress::concurrency", conf.Concurrency)
	conf.Scenario = c.DefaultString("stress::scenario", conf.Scenario)

	if conf.Threads <= 0 {
		return nil, errors.Errorf("stress::threads must be positive, got %d", conf.Threads)
	}
	if conf.Iterations <= 0 {
		return nil, errors.Errorf("stress::iterations must be positive, got %d", conf.Iterations)
	}
	if conf.Concurrency < 0 {
		return nil, errors.Errorf("stress::concurrency must not be negative, got %d", conf.Concurrency)
	}
	return conf, nil
}

// NewRunner loads the configured scenario and builds a Runner from it.
func (conf *Config) NewRunner() (*Runner, error) {
	sc := DefaultScenario()
	if conf.Scenario != "" {
		var err error
		if sc, err = LoadScenario(conf.Scenario); err != nil {
			return nil, err
		}
	}
	return NewRunner(sc, conf.Threads, conf.Iterations, conf.Concurrency)
}
