package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/classpulse-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:            "db",
		Port:            5432,
		User:            "classpulse",
		Password:        "s3cr et'x",
		Name:            "classpulse",
		SSLMode:         "disable",
		ApplicationName: "classpulse-api",
		ConnectTimeout:  10 * time.Second,
	})

	assert.Equal(t, `host=db port=5432 user=classpulse password='s3cr et\'x' dbname=classpulse sslmode=disable application_name=classpulse-api connect_timeout=10`, dsn)
}

func TestDSNOmitsOptionalSettings(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres", Name: "classpulse", SSLMode: "disable"})

	assert.Equal(t, "host=localhost port=5432 user=postgres password='' dbname=classpulse sslmode=disable", dsn)
}
