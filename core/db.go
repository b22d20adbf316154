package core

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// MemoryDB keeps jobs in memory. Jobs sent on the DBChan are upserted.
type MemoryDB struct {
	dbMap  map[string]Job
	dbChan <-chan Job
	mu     sync.RWMutex
}

func (d *MemoryDB) Setup(dbc DBChan, c *Conf) error {
	d.dbMap = make(map[string]Job)
	d.dbChan = dbc
	if dbc == nil {
		return nil
	}
	go func() {
		for job := range d.dbChan {
			zap.L().Debug(fmt.Sprintf("[MemoryDB] Received %s", job.JobData().ID))
			if err := d.Update(job); err != nil {
				zap.L().Error(fmt.Sprintf("failed to update a job(%s). Reason:%s",
					job.JobData().ID, err.Error()))
			}
		}
	}()
	return nil
}

func (d *MemoryDB) Insert(j Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.dbMap[j.JobData().ID]; ok {
		return fmt.Errorf("%w: %s", ErrorJobIDConflict, j.JobData().ID)
	}
	d.dbMap[j.JobData().ID] = j
	return nil
}

func (d *MemoryDB) Get(jobID string) (Job, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if val, ok := d.dbMap[jobID]; ok {
		return val, nil
	}
	err := fmt.Errorf("not found %s", jobID)
	zap.L().Info("[MemoryDB]", zap.Error(err))
	return nil, err
}

func (d *MemoryDB) Update(j Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dbMap[j.JobData().ID] = j
	return nil
}

func (d *MemoryDB) Delete(jobID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.dbMap[jobID]; ok {
		delete(d.dbMap, jobID)
		zap.L().Info(fmt.Sprintf("[MemoryDB] deleted %s from DB", jobID))
		return nil
	}
	err := fmt.Errorf("failed to find %s", jobID)
	zap.L().Info("[MemoryDB]", zap.Error(err))
	return err
}

// List returns the stored job IDs, sorted.
func (d *MemoryDB) List() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]string, 0, len(d.dbMap))
	for id := range d.dbMap {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
