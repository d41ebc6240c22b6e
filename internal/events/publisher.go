package events

import (
	"fmt"

	"github.com/driftwatch/driftwatch/pkg/models"
)

type Publisher struct {
	bus     *EventBus
	traceID string
}

func NewPublisher(bus *EventBus) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) WithTraceID(traceID string) *Publisher {
	return &Publisher{
		bus:     p.bus,
		traceID: traceID,
	}
}

func (p *Publisher) publish(event *models.Event) {
	if p.traceID != "" {
		event.TraceID = p.traceID
	}
	p.bus.Publish(event)
}

func (p *Publisher) WindowLoaded(window *models.MetricWindow) {
	msg := fmt.Sprintf("Window loaded (%d samples)", len(window.Samples))
	event := models.NewEvent(models.EventTypeWindowLoaded, window.Host, window.Metric, msg).
		WithData(map[string]interface{}{
			"samples": len(window.Samples),
			"latest":  window.Latest().Value,
		})
	p.publish(event)
}

func (p *Publisher) PredictionStored(record *models.PredictionRecord) {
	msg := "Prediction stored: " + string(record.Status)
	event := models.NewEvent(models.EventTypePredictionStored, record.Host, record.Metric, msg).
		WithData(record)

	switch record.Status {
	case models.StatusCritical:
		event.WithSeverity(models.SeverityCritical)
	case models.StatusWarning:
		event.WithSeverity(models.SeverityWarning)
	}

	p.publish(event)

	if record.Status != models.StatusOK {
		p.Alert(record.Host, record.Metric, event.Severity,
			fmt.Sprintf("%s on %s is %s", record.Metric, record.Host, record.Status), record)
	}
}

func (p *Publisher) FallbackUsed(record *models.PredictionRecord) {
	event := models.NewEvent(models.EventTypeFallbackUsed, record.Host, record.Metric,
		"Model output unusable, heuristic prediction recorded").
		WithSeverity(models.SeverityWarning).
		WithData(record)
	p.publish(event)
}

func (p *Publisher) ModelUnreachable(err error) {
	event := models.NewEvent(models.EventTypeModelUnreachable, "", "",
		"Model endpoint unreachable").
		WithSeverity(models.SeverityWarning).
		WithData(map[string]interface{}{
			"error": err.Error(),
		})
	p.publish(event)
}

func (p *Publisher) Alert(host, metric string, severity models.EventSeverity, message string, data interface{}) {
	event := models.NewEvent(models.EventTypeAlert, host, metric, message).
		WithSeverity(severity).
		WithData(data)
	p.publish(event)
}

func (p *Publisher) Error(host, metric string, message string, err error) {
	event := models.NewEvent(models.EventTypeError, host, metric, message).
		WithSeverity(models.SeverityCritical).
		WithData(map[string]interface{}{
			"error": err.Error(),
		})
	p.publish(event)
}
