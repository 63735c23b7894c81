package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var _ events.EventStore = (*PostgresEventStore)(nil)

// ErrStreamConflict is returned when the stream moved past the expected version
var ErrStreamConflict = errors.New("event stream version conflict")

// PostgresEventStore implements EventStore using PostgreSQL. Each aggregate
// owns one stream ordered by stream_version.
type PostgresEventStore struct {
	db *sqlx.DB
}

// NewPostgresEventStore creates a new PostgresEventStore
func NewPostgresEventStore(db *sqlx.DB) *PostgresEventStore {
	return &PostgresEventStore{db: db}
}

// postgresEvent represents event in database
type postgresEvent struct {
	ID            string    `db:"id"`
	AggregateID   string    `db:"aggregate_id"`
	Topic         string    `db:"topic"`
	Version       string    `db:"version"`
	Data          []byte    `db:"data"`
	Metadata      []byte    `db:"metadata"`
	Timestamp     time.Time `db:"timestamp"`
	CorrelationID string    `db:"correlation_id"`
	StreamVersion int       `db:"stream_version"`
}

const insertEventQuery = `
	INSERT INTO event_stream (
		id, aggregate_id, topic, version, data, metadata,
		timestamp, correlation_id, stream_version
	) VALUES (
		:id, :aggregate_id, :topic, :version, :data, :metadata,
		:timestamp, :correlation_id, :stream_version
	)`

const selectEventColumns = `
	SELECT id, aggregate_id, topic, version, data, metadata,
		   timestamp, correlation_id, stream_version
	FROM event_stream`

// SaveEvents appends events to the aggregate stream if it is still at expectedVersion
func (es *PostgresEventStore) SaveEvents(ctx context.Context, aggregateID models.ID, evts []*events.Event, expectedVersion int) error {
	return es.append(ctx, aggregateID, evts, &expectedVersion)
}

// AppendEvents appends events to the end of the aggregate stream, whatever its version
func (es *PostgresEventStore) AppendEvents(ctx context.Context, aggregateID models.ID, evts []*events.Event) error {
	return es.append(ctx, aggregateID, evts, nil)
}

func (es *PostgresEventStore) append(ctx context.Context, aggregateID models.ID, evts []*events.Event, expectedVersion *int) error {
	if len(evts) == 0 {
		return nil
	}

	tx, err := es.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var currentVersion int
	err = tx.GetContext(ctx, &currentVersion,
		"SELECT COALESCE(MAX(stream_version), 0) FROM event_stream WHERE aggregate_id = $1",
		aggregateID.String())
	if err != nil {
		return errors.Wrap(err, "failed to get current version")
	}

	if expectedVersion != nil && currentVersion != *expectedVersion {
		return errors.Wrapf(ErrStreamConflict, "expected version %d, got %d", *expectedVersion, currentVersion)
	}

	for i, event := range evts {
		pgEvent, err := es.toPostgres(aggregateID, event, currentVersion+i+1)
		if err != nil {
			return errors.Wrap(err, "failed to convert event")
		}

		// (aggregate_id, stream_version) is unique, so a concurrent append fails here
		if _, err := tx.NamedExecContext(ctx, insertEventQuery, pgEvent); err != nil {
			return errors.Wrap(err, "failed to insert event")
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit events")
}

// GetEvents retrieves all events for an aggregate
func (es *PostgresEventStore) GetEvents(ctx context.Context, aggregateID models.ID) ([]*events.Event, error) {
	query := selectEventColumns + `
		WHERE aggregate_id = $1
		ORDER BY stream_version ASC`

	var pgEvents []postgresEvent
	err := es.db.SelectContext(ctx, &pgEvents, query, aggregateID.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to get events")
	}

	return es.toDomainList(pgEvents)
}

// GetEventsByTopic retrieves events published on a topic with pagination
func (es *PostgresEventStore) GetEventsByTopic(ctx context.Context, topic events.Topic, offset, limit int) ([]*events.Event, error) {
	query := selectEventColumns + `
		WHERE topic = $1
		ORDER BY timestamp ASC
		LIMIT $2 OFFSET $3`

	var pgEvents []postgresEvent
	err := es.db.SelectContext(ctx, &pgEvents, query, topic.String(), limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get events by topic")
	}

	return es.toDomainList(pgEvents)
}

func (es *PostgresEventStore) toPostgres(aggregateID models.ID, event *events.Event, streamVersion int) (*postgresEvent, error) {
	data, err := event.MarshalPayload()
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal event data")
	}

	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal event metadata")
	}

	return &postgresEvent{
		ID:            event.ID.String(),
		AggregateID:   aggregateID.String(),
		Topic:         event.Topic.String(),
		Version:       event.Version,
		Data:          data,
		Metadata:      metadata,
		Timestamp:     event.Timestamp,
		CorrelationID: event.CorrelationID.String(),
		StreamVersion: streamVersion,
	}, nil
}

func (es *PostgresEventStore) toDomainList(pgEvents []postgresEvent) ([]*events.Event, error) {
	out := make([]*events.Event, len(pgEvents))
	for i := range pgEvents {
		event, err := es.toDomain(&pgEvents[i])
		if err != nil {
			return nil, err
		}
		out[i] = event
	}
	return out, nil
}

func (es *PostgresEventStore) toDomain(pgEvent *postgresEvent) (*events.Event, error) {
	metadata := make(events.Metadata)
	if len(pgEvent.Metadata) > 0 {
		if err := json.Unmarshal(pgEvent.Metadata, &metadata); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal event metadata")
		}
	}

	topic, err := events.NewTopic(pgEvent.Topic)
	if err != nil {
		return nil, errors.Wrapf(err, "event %s", pgEvent.ID)
	}

	return &events.Event{
		ID:            models.ID(pgEvent.ID),
		AggregateID:   models.ID(pgEvent.AggregateID),
		Topic:         topic,
		Version:       pgEvent.Version,
		Data:          json.RawMessage(pgEvent.Data),
		Metadata:      metadata,
		Timestamp:     pgEvent.Timestamp,
		CorrelationID: models.ID(pgEvent.CorrelationID),
	}, nil
}
