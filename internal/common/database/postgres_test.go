package database

import (
	"context"
	"testing"

	"remnawave-workers/internal/common/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresClient_Exec(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	client := NewPostgresFromDB(db)

	mock.ExpectExec("DELETE FROM remnawave_dispatch_audit").
		WithArgs("batch-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectClose()

	res, err := client.ExecContext(context.Background(), "DELETE FROM remnawave_dispatch_audit WHERE batch_id = $1", "batch-1")
	require.NoError(t, err)
	affected, _ := res.RowsAffected()
	assert.Equal(t, int64(3), affected)

	require.NoError(t, client.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgres_DoesNotConnect(t *testing.T) {
	client, err := NewPostgres(config.PostgresConfig{
		Host:           "127.0.0.1",
		Port:           1,
		Database:       "audit",
		User:           "worker",
		SSLMode:        "disable",
		MaxConnections: 2,
		MaxIdle:        1,
	})
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, 2, client.DB.Stats().MaxOpenConnections)
}
