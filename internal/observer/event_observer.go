package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go-font-inspector/pkg/models"
)

// AnalysisEvent is emitted at each step of one font analysis.
type AnalysisEvent struct {
	EventType      EventType         `json:"event_type"`
	RequestID      string            `json:"request_id"`
	Timestamp      time.Time         `json:"timestamp"`
	SourceKind     models.SourceKind `json:"source_kind"`
	SourceURL      string            `json:"source_url,omitempty"`
	MediaType      string            `json:"media_type,omitempty"`
	Model          string            `json:"model,omitempty"`
	FontCount      int               `json:"font_count"`
	ProcessingTime time.Duration     `json:"processing_time"`
	Success        bool              `json:"success"`
	ErrorType      string            `json:"error_type,omitempty"`
	ErrorReason    string            `json:"error_reason,omitempty"`
	ErrorMessage   string            `json:"error_message,omitempty"`
	Metadata       map[string]any    `json:"metadata,omitempty"`
}

// EventType represents the type of analysis event
type EventType string

const (
	AnalysisStarted    EventType = "analysis_started"
	ImageAcquired      EventType = "image_acquired"
	ImageAcquireFailed EventType = "image_acquire_failed"
	AnalysisCompleted  EventType = "analysis_completed"
	AnalysisFailed     EventType = "analysis_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event AnalysisEvent)
}

// LoggingObserver logs analysis events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles analysis events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	fields := logrus.Fields{
		"event_type":  event.EventType,
		"request_id":  event.RequestID,
		"source_kind": event.SourceKind,
		"success":     event.Success,
	}
	if event.SourceURL != "" {
		fields["url"] = event.SourceURL
	}
	if event.MediaType != "" {
		fields["media_type"] = event.MediaType
	}
	if event.Model != "" {
		fields["model"] = event.Model
	}
	if event.ProcessingTime > 0 {
		fields["processing_time_ms"] = event.ProcessingTime.Milliseconds()
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
		fields["error_type"] = event.ErrorType
		fields["error_reason"] = event.ErrorReason
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case AnalysisStarted:
		entry.Info("Font analysis started")
	case ImageAcquired:
		entry.Debug("Image acquired")
	case ImageAcquireFailed:
		entry.Warn("Image acquisition failed")
	case AnalysisCompleted:
		entry.WithField("fonts", event.FontCount).Info("Font analysis completed")
	case AnalysisFailed:
		entry.Error("Font analysis failed")
	default:
		entry.Info("Analysis event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsSnapshot is what GET /metrics serves.
type MetricsSnapshot struct {
	TotalAnalyses       int64            `json:"total_analyses"`
	SuccessfulAnalyses  int64            `json:"successful_analyses"`
	FailedAnalyses      int64            `json:"failed_analyses"`
	AcquireFailures     int64            `json:"acquire_failures"`
	EmptyResults        int64            `json:"empty_results"`
	FontsDetected       int64            `json:"fonts_detected"`
	FailuresByType      map[string]int64 `json:"failures_by_type"`
	AnalysesBySource    map[string]int64 `json:"analyses_by_source"`
	AvgProcessingTimeMS float64          `json:"avg_processing_time_ms"`
}

// MetricsObserver collects metrics from analysis events
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalAnalyses       int64
	successfulAnalyses  int64
	failedAnalyses      int64
	acquireFailures     int64
	emptyResults        int64
	fontsDetected       int64
	failuresByType      map[string]int64
	analysesBySource    map[string]int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		failuresByType:   make(map[string]int64),
		analysesBySource: make(map[string]int64),
	}
}

// OnEvent handles analysis events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case AnalysisStarted:
		o.totalAnalyses++
		if event.SourceKind != "" {
			o.analysesBySource[string(event.SourceKind)]++
		}
	case ImageAcquireFailed:
		o.acquireFailures++
	case AnalysisCompleted:
		o.successfulAnalyses++
		o.fontsDetected += int64(event.FontCount)
		if event.FontCount == 0 {
			o.emptyResults++
		}
		o.totalProcessingTime += event.ProcessingTime
	case AnalysisFailed:
		o.failedAnalyses++
		if event.ErrorType != "" {
			o.failuresByType[event.ErrorType]++
		}
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() MetricsSnapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()

	snap := MetricsSnapshot{
		TotalAnalyses:      o.totalAnalyses,
		SuccessfulAnalyses: o.successfulAnalyses,
		FailedAnalyses:     o.failedAnalyses,
		AcquireFailures:    o.acquireFailures,
		EmptyResults:       o.emptyResults,
		FontsDetected:      o.fontsDetected,
		FailuresByType:     make(map[string]int64, len(o.failuresByType)),
		AnalysesBySource:   make(map[string]int64, len(o.analysesBySource)),
	}
	for k, v := range o.failuresByType {
		snap.FailuresByType[k] = v
	}
	for k, v := range o.analysesBySource {
		snap.AnalysesBySource[k] = v
	}
	if o.successfulAnalyses > 0 {
		avg := o.totalProcessingTime / time.Duration(o.successfulAnalyses)
		snap.AvgProcessingTimeMS = float64(avg.Microseconds()) / 1000
	}
	return snap
}

// EventPublisher implements the Subject interface. Observers run on their own goroutines
// so a slow observer never delays an analysis.
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	pending   sync.WaitGroup
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event. The request context is detached
// from cancellation since observers usually finish after the response is written.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event AnalysisEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	ctx = context.WithoutCancel(ctx)

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		p.pending.Add(1)
		go func(obs Observer) {
			defer p.pending.Done()
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}

// Wait blocks until every notification sent so far has been handled. Used on shutdown.
func (p *EventPublisher) Wait() {
	p.pending.Wait()
}
