package main

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunChecks(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	counts := []int64{3, 1, 6, 0, 0, 2, 1, 1}
	for i, c := range checks {
		q := mock.ExpectQuery(regexp.QuoteMeta(c.query))
		if i == 3 {
			q.WillReturnError(errors.New(`relation "production_forecast" does not exist`))
			continue
		}
		q.WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(counts[i]))
	}

	var out bytes.Buffer
	warnings := runChecks(context.Background(), db, &out)

	// 一个查询失败 + 一个越界计数
	assert.Equal(t, 2, warnings)
	assert.Contains(t, out.String(), "daily_production_metrics rows")
	assert.Contains(t, out.String(), "ERROR:")
	assert.Contains(t, out.String(), "<- check data")
	require.NoError(t, mock.ExpectationsWereMet())
}
