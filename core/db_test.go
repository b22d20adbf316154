//go:build unit
// +build unit

package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJob(id string) Job {
	return (&UnimplementedJob{}).New(&JobData{ID: id, Result: NewResult()}, nil)
}

func TestMemoryDB(t *testing.T) {
	db := &MemoryDB{}
	require.Nil(t, db.Setup(nil, &Conf{}))

	require.Nil(t, db.Insert(newTestJob("a")))
	err := db.Insert(newTestJob("a"))
	assert.True(t, errors.Is(err, ErrorJobIDConflict))

	got, err := db.Get("a")
	require.Nil(t, err)
	assert.Equal(t, "a", got.JobData().ID)

	_, err = db.Get("b")
	assert.EqualError(t, err, "not found b")

	require.Nil(t, db.Update(newTestJob("b")))
	assert.Equal(t, []string{"a", "b"}, db.List())

	assert.Nil(t, db.Delete("a"))
	assert.EqualError(t, db.Delete("a"), "failed to find a")
	assert.Equal(t, []string{"b"}, db.List())
}

func TestMemoryDBChannel(t *testing.T) {
	ch := make(DBChan)
	db := &MemoryDB{}
	require.Nil(t, db.Setup(ch, &Conf{}))
	ch <- newTestJob("from-channel")
	close(ch)

	assert.Eventually(t, func() bool {
		_, err := db.Get("from-channel")
		return err == nil
	}, time.Second, 10*time.Millisecond)
}
