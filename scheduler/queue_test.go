//go:build unit
// +build unit

package scheduler

import (
	"sync"
	"testing"

	"github.com/oqtopus-team/oqtopus-qir/core"
	"github.com/stretchr/testify/assert"
)

type TestFIFO struct {
	conqFIFO
	queuedChan chan struct{}
}

func newTestFIFO(queuedChan chan struct{}) *TestFIFO {
	return &TestFIFO{
		conqFIFO:   *newConqFIFO(),
		queuedChan: queuedChan,
	}
}

func (t *TestFIFO) Enqueue(js *jobInScheduler) error {
	err := t.FIFO.Enqueue(js)
	t.queuedChan <- struct{}{}
	return err
}

func setUpTestNormalQueue(queuedChan chan struct{}) *NormalQueue {
	n := &NormalQueue{}
	conf := &core.Conf{QueueMaxSize: 1000}
	n.Setup(conf)
	n.fifo = newTestFIFO(queuedChan)
	return n
}

func tearDownTestNormalQueue(n *NormalQueue) {
	close(n.fifo.(*TestFIFO).queuedChan)
	n.TearDown()
}

func TestPutNormalQueue(t *testing.T) {
	s := core.SCWithUnimplementedContainer()
	defer s.TearDown()
	queuedChan := make(chan struct{})
	n := setUpTestNormalQueue(queuedChan)
	defer tearDownTestNormalQueue(n)

	n.queueChan <- newjobInScheduler(t, "test1")
	<-queuedChan
	assert.Equal(t, 1, n.fifo.GetLen())
	js, err := n.Dequeue(false)
	assert.Nil(t, err)
	assert.Equal(t, js.job.JobData().ID, "test1")
}

func TestNormalQueueDelete(t *testing.T) {
	s := core.SCWithUnimplementedContainer()
	defer s.TearDown()
	queuedChan := make(chan struct{})
	n := setUpTestNormalQueue(queuedChan)
	defer tearDownTestNormalQueue(n)

	n.queueChan <- newjobInScheduler(t, "test1")
	<-queuedChan
	assert.Equal(t, n.fifo.GetLen(), 1)
	n.queueChan <- newjobInScheduler(t, "test2")
	<-queuedChan
	assert.Equal(t, n.fifo.GetLen(), 2)
	n.queueChan <- newjobInScheduler(t, "test3")
	<-queuedChan
	assert.Equal(t, n.fifo.GetLen(), 3)
	n.queueChan <- newjobInScheduler(t, "test4")
	<-queuedChan
	assert.Equal(t, n.fifo.GetLen(), 4)

	n.Delete("test3")

	assert.Equal(t, n.fifo.GetLen(), 3)

	var jwg *jobInScheduler
	var err error

	jwg, err = n.Dequeue(false)
	assert.Nil(t, err)
	assert.Equal(t, jwg.job.JobData().ID, "test1")

	jwg, err = n.Dequeue(false)
	assert.Nil(t, err)
	assert.Equal(t, jwg.job.JobData().ID, "test2")

	jwg, err = n.Dequeue(false)
	assert.Nil(t, err)
	assert.Equal(t, jwg.job.JobData().ID, "test4")

	jwg, err = n.Dequeue(false)
	assert.EqualError(t, err, "empty queue")
	assert.Nil(t, jwg)
}

func TestNormalQueueRejectsWhenFull(t *testing.T) {
	s := core.SCWithUnimplementedContainer()
	defer s.TearDown()
	queuedChan := make(chan struct{})
	n := setUpTestNormalQueue(queuedChan)
	defer tearDownTestNormalQueue(n)
	n.maxSize = 1

	n.queueChan <- newjobInScheduler(t, "test1")
	<-queuedChan

	var wg sync.WaitGroup
	wg.Add(1)
	rejected := newjobInScheduler(t, "test2")
	rejected.finished = &wg
	n.queueChan <- rejected
	wg.Wait()
	assert.Equal(t, 1, n.fifo.GetLen())
	assert.Equal(t, core.FAILED, rejected.job.JobData().Status)
	assert.Equal(t, "queue is full(1)", rejected.job.JobData().Result.Message)
}

func newjobInScheduler(t *testing.T, id string) *jobInScheduler {
	jm, err := core.NewJobManager(&core.UnimplementedJob{})
	assert.Nil(t, err)
	jc, err := core.NewJobContext()
	assert.Nil(t, err)
	jd := core.NewJobData()
	jd.ID = id
	jd.JobType = core.MockJobType
	nj, err := jm.NewJobFromJobData(jd, jc)
	assert.Nil(t, err)
	return &jobInScheduler{
		job: nj,
	}
}
