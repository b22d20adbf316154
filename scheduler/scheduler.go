// Package scheduler runs jobs through their pre-process, process and
// post-process phases. Processing is serialized through a FIFO.
package scheduler

import (
	"fmt"
	"sync"

	"github.com/oqtopus-team/oqtopus-qir/core"
	"go.uber.org/zap"
)

type statusManager interface {
	Update(job core.Job, status core.Status)
	Delete(jobID string)
	Get(jobID string) []core.Status
}

// statusHistory records the statuses a job passed through while it was
// handled by the scheduler.
type statusHistory struct {
	history map[string][]core.Status
	mu      sync.RWMutex
}

func newStatusHistory() *statusHistory {
	return &statusHistory{history: make(map[string][]core.Status)}
}

func (s *statusHistory) Update(job core.Job, status core.Status) {
	job.JobData().Status = status
	s.mu.Lock()
	defer s.mu.Unlock()
	id := job.JobData().ID
	s.history[id] = append(s.history[id], status)
}

func (s *statusHistory) Delete(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.history, jobID)
}

func (s *statusHistory) Get(jobID string) []core.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Status(nil), s.history[jobID]...)
}

type NormalScheduler struct {
	queue         *NormalQueue
	statusManager statusManager
}

type jobInScheduler struct {
	job      core.Job
	finished *sync.WaitGroup
}

func (n *NormalScheduler) Setup(conf *core.Conf) error {
	n.queue = &NormalQueue{}
	if err := n.queue.Setup(conf); err != nil {
		return err
	}
	n.statusManager = newStatusHistory()
	return nil
}

func (n *NormalScheduler) Start() error {
	go func() {
		for {
			zap.L().Debug("checking the queue...")
			jis, err := n.queue.Dequeue(true)
			if err != nil {
				zap.L().Error(fmt.Sprintf("failed to get a job from queue/reason:%s", err))
				continue
			}
			if jis.job == nil {
				zap.L().Debug("scheduler is stopped")
				return
			}
			n.process(jis)
		}
	}()
	return nil
}

// Stop ends the processing loop once the jobs queued before it are done.
func (n *NormalScheduler) Stop() {
	if err := n.queue.fifo.Enqueue(&jobInScheduler{}); err != nil {
		zap.L().Error(fmt.Sprintf("failed to stop the scheduler/reason:%s", err))
	}
	n.queue.TearDown()
}

func (n *NormalScheduler) process(jis *jobInScheduler) {
	j := jis.job
	jid := j.JobData().ID
	defer jis.finished.Done()
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error(fmt.Sprintf("recovered from panic in processing job(%s)/reason:%v", jid, r))
			core.SetFailureWithError(j, fmt.Errorf("panic in process: %v", r))
		}
	}()
	zap.L().Debug(fmt.Sprintf("processing job:%s", jid))
	n.statusManager.Update(j, core.RUNNING)
	j.JobContext().DBChan <- j.Clone()
	j.Process()
	zap.L().Debug(fmt.Sprintf("finished to process job(%s), status:%s", jid, j.JobData().Status))
}

func (n *NormalScheduler) HandleJob(j core.Job) {
	zap.L().Debug(fmt.Sprintf("starting to handle job(%s) in %s", j.JobData().ID, j.JobData().Status))
	go func() {
		defer func() {
			zap.L().Debug(fmt.Sprintf("status history job(%s): %v", j.JobData().ID, n.statusManager.Get(j.JobData().ID)))
			n.statusManager.Delete(j.JobData().ID)
		}()
		n.handleImpl(j)
	}()
}

// HandleJobWithWaitGroup handles j and calls wg.Done once j has left the
// scheduler.
func (n *NormalScheduler) HandleJobWithWaitGroup(j core.Job, wg *sync.WaitGroup) {
	go func() {
		defer wg.Done()
		n.handleImpl(j)
	}()
}

func (n *NormalScheduler) handleImpl(j core.Job) {
	for {
		jid := j.JobData().ID
		st := j.JobData().Status // must be ready
		n.statusManager.Update(j, st)
		zap.L().Debug(fmt.Sprintf("handling job(%s) in %s starting", jid, st))
		if st != core.READY {
			zap.L().Error(
				fmt.Sprintf("finished to handle job(%s) with unexpected status:%s", jid, st))
			return
		}
		zap.L().Debug(fmt.Sprintf("handling job(%s). start pre-processing", jid))
		j.PreProcess()
		j.JobContext().DBChan <- j.Clone()
		if j.IsFinished() {
			zap.L().Debug(fmt.Sprintf("finished to handle job(%s) after pre-processing", jid))
			n.statusManager.Update(j, j.JobData().Status)
			return
		}
		var wg sync.WaitGroup
		wg.Add(1)
		n.queue.queueChan <- &jobInScheduler{
			job:      j,
			finished: &wg,
		}
		wg.Wait() // wait for processing
		if j.IsFinished() {
			zap.L().Debug(fmt.Sprintf("finished to handle job(%s) after processing with status:%s",
				jid, j.JobData().Status))
			n.statusManager.Update(j, j.JobData().Status)
			j.JobContext().DBChan <- j.Clone()
			return
		}
		zap.L().Debug(fmt.Sprintf("handling job(%s). start post-processing", jid))
		j.PostProcess()
		if j.IsFinished() {
			zap.L().Debug(fmt.Sprintf("finished to handle job(%s) after post-processing with status:%s",
				jid, j.JobData().Status))
			n.statusManager.Update(j, j.JobData().Status)
			j.JobContext().DBChan <- j.Clone()
			return
		}
		zap.L().Debug(fmt.Sprintf("one more loop for job(%s)", jid))
	}
}

func (n *NormalScheduler) GetCurrentQueueSize() int {
	return n.queue.GetCurrentSize()
}
