package scheduler

import (
	"fmt"

	conq "github.com/enriquebris/goconcurrentqueue"
	"github.com/oqtopus-team/oqtopus-qir/core"
	"go.uber.org/zap"
)

type queueChan chan *jobInScheduler

type fifo interface {
	Enqueue(*jobInScheduler) error
	Dequeue() (*jobInScheduler, error)
	DequeueOrWaitForNextElement() (*jobInScheduler, error)
	Get(index int) (*jobInScheduler, error)
	GetLen() int
	Remove(index int) error
}

type conqFIFO struct {
	conq.FIFO
}

func newConqFIFO() *conqFIFO {
	return &conqFIFO{
		FIFO: *conq.NewFIFO(),
	}
}

func (c *conqFIFO) Enqueue(js *jobInScheduler) error {
	return c.FIFO.Enqueue(js)
}

func (c *conqFIFO) Dequeue() (*jobInScheduler, error) {
	tmp, err := c.FIFO.Dequeue()
	if err != nil {
		return nil, err
	}
	return tmp.(*jobInScheduler), nil
}

func (c *conqFIFO) DequeueOrWaitForNextElement() (*jobInScheduler, error) {
	tmp, err := c.FIFO.DequeueOrWaitForNextElement()
	if err != nil {
		return nil, err
	}
	return tmp.(*jobInScheduler), nil
}

func (c *conqFIFO) Get(index int) (*jobInScheduler, error) {
	tmp, err := c.FIFO.Get(index)
	if err != nil {
		return nil, err
	}
	return tmp.(*jobInScheduler), nil
}

func (c *conqFIFO) GetLen() int {
	return c.FIFO.GetLen()
}

func (c *conqFIFO) Remove(index int) error {
	return c.FIFO.Remove(index)
}

type NormalQueue struct {
	fifo       fifo
	maxSize    int
	queueChan  queueChan
	cancelChan chan struct{}
}

func (n *NormalQueue) Setup(conf *core.Conf) error {
	n.maxSize = conf.QueueMaxSize
	n.fifo = newConqFIFO()
	n.queueChan = make(queueChan)
	n.cancelChan = make(chan struct{})
	go func() {
		defer close(n.cancelChan)
		for {
			var jis *jobInScheduler
			select {
			case <-n.cancelChan:
				return
			case jis = <-n.queueChan:
			}
			jd := jis.job.JobData()
			if n.maxSize <= n.fifo.GetLen() {
				zap.L().Info(fmt.Sprintf("failed to put %s/normal queue is full", jd.ID))
				n.reject(jis, fmt.Errorf("queue is full(%d)", n.maxSize))
				continue
			}
			zap.L().Debug(fmt.Sprintf("putting %s to normal queue", jd.ID))
			if err := n.fifo.Enqueue(jis); err != nil {
				zap.L().Error(fmt.Sprintf("failed to put %s to normal queue/reason:%s", jd.ID, err))
				n.reject(jis, err)
			}
		}
	}()
	return nil
}

// reject fails a job that could not be queued and releases its handler.
func (n *NormalQueue) reject(jis *jobInScheduler, err error) {
	core.SetFailureWithError(jis.job, err)
	if jis.finished != nil {
		jis.finished.Done()
	}
}

func (n *NormalQueue) TearDown() {
	n.cancelChan <- struct{}{}
}

// wait until the next elements gets enqueued
func (n *NormalQueue) Dequeue(wait bool) (jis *jobInScheduler, err error) {
	if wait {
		jis, err = n.fifo.DequeueOrWaitForNextElement()
	} else {
		jis, err = n.fifo.Dequeue()
	}
	if err != nil {
		zap.L().Debug("no job in normal queue", zap.Error(err))
		return nil, err
	}
	if jis.job != nil {
		zap.L().Debug(fmt.Sprintf("dequeued job:%s", jis.job.JobData().ID))
	}
	return jis, nil
}

func (n *NormalQueue) Delete(jobID string) error {
	zap.L().Debug(fmt.Sprintf("deleting %s from normal queue", jobID))
	idx, err := n.getIdx(jobID)
	if err != nil {
		zap.L().Info(fmt.Sprintf("failed to delete %s/reason:%s", jobID, err))
		return err
	}
	if err := n.fifo.Remove(idx); err != nil {
		zap.L().Error(fmt.Sprintf("failed to remove idx(%d)/reason:%s", idx, err))
		return err
	}
	return nil
}

func (n *NormalQueue) GetCurrentSize() int {
	return n.fifo.GetLen()
}

func (n *NormalQueue) getIdx(jobID string) (int, error) {
	for i := 0; i < n.fifo.GetLen(); i++ {
		js, err := n.fifo.Get(i)
		if err == nil && js.job != nil && js.job.JobData().ID == jobID {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no entry of %s", jobID)
}
