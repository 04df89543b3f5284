package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/timetable-core/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5433, User: "svc", Password: "secret", Name: "timetable", SSLMode: "require"})
	assert.Equal(t, "host=db port=5433 user=svc password=secret dbname=timetable sslmode=require", dsn)
}
