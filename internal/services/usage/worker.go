package usage

import (
	"context"
	"sync"
	"time"

	"github.com/Egham-7/pitchside/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

const recordTimeout = 5 * time.Second

// Recorder is where the pipeline sends answer logs.
type Recorder interface {
	Submit(log *models.AnswerLog)
}

// Worker writes answer logs off the request path. When the queue is full
// logs are dropped rather than slowing down answers.
type Worker struct {
	service  *Service
	tasks    chan *models.AnswerLog
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

func NewWorker(service *Service, poolSize, bufferSize int) *Worker {
	if poolSize <= 0 {
		poolSize = 1
	}
	if bufferSize <= 0 {
		bufferSize = 100
	}
	w := &Worker{
		service: service,
		tasks:   make(chan *models.AnswerLog, bufferSize),
		stopped: make(chan struct{}),
	}
	for range poolSize {
		w.wg.Add(1)
		go w.run()
	}
	return w
}

func (w *Worker) Submit(log *models.AnswerLog) {
	if log == nil {
		return
	}
	select {
	case <-w.stopped:
		fiberlog.Warnf("[%s] Usage worker stopped, dropping answer log", log.RequestID)
		return
	default:
	}

	select {
	case w.tasks <- log:
	default:
		fiberlog.Warnf("[%s] Answer log buffer full, dropping entry", log.RequestID)
	}
}

func (w *Worker) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.stopped:
			w.drain()
			return
		case log := <-w.tasks:
			w.record(log)
		}
	}
}

// drain flushes whatever was queued before Stop.
func (w *Worker) drain() {
	for {
		select {
		case log := <-w.tasks:
			w.record(log)
		default:
			return
		}
	}
}

func (w *Worker) record(log *models.AnswerLog) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := w.service.Record(ctx, log); err != nil {
		fiberlog.Errorf("[%s] Failed to record answer log: %v", log.RequestID, err)
	}
}

// Stop flushes queued logs and waits for the workers to exit.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopped)
		w.wg.Wait()
	})
}
