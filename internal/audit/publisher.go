package audit

import (
	"context"

	id "govinda/pkg/domain"
	"govinda/pkg/requestcontext"
)

// Store is the append-only persistence behind the publisher.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByEntity(ctx context.Context, tenantID id.TenantID, entity, entityID string) ([]Event, error)
}

// Publisher captures structured audit events. Events are persisted first and
// then handed to the worker inbox for streaming; a full inbox drops the
// stream copy rather than blocking the request path.
type Publisher struct {
	store Store
	inbox chan<- Event
}

func NewPublisher(store Store, inbox chan<- Event) *Publisher {
	return &Publisher{store: store, inbox: inbox}
}

func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.Timestamp.IsZero() {
		base.Timestamp = requestcontext.Now(ctx)
	}
	if base.TenantID.IsNil() {
		base.TenantID = requestcontext.TenantID(ctx)
	}
	if base.UserID.IsNil() {
		base.UserID = requestcontext.UserID(ctx)
	}
	if base.RequestID == "" {
		base.RequestID = requestcontext.RequestID(ctx)
	}
	if err := p.store.Append(ctx, base); err != nil {
		return err
	}
	if p.inbox != nil {
		select {
		case p.inbox <- base:
		default:
		}
	}
	return nil
}

func (p *Publisher) List(ctx context.Context, tenantID id.TenantID, entity, entityID string) ([]Event, error) {
	return p.store.ListByEntity(ctx, tenantID, entity, entityID)
}
