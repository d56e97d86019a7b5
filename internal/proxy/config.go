package proxy

import "time"

type Config struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// RequestTimeout bounds the registry lookup, the download and the reduction
	RequestTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 5 * time.Second
	}

	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}

	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 5 * time.Second
	}

	return c
}
